package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
)

// NewProductCommand creates the product command group.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the product list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a product (names are unique ignoring case)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				p, err := a.catalog.AddProduct(ctx, args[0])
				if err != nil {
					return err
				}
				return a.out.Success(productView{ID: p.ID, Name: p.Name})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List products by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				products, err := a.catalog.ListProducts(ctx)
				if err != nil {
					return err
				}
				sort.SliceStable(products, func(i, j int) bool { return products[i].Name < products[j].Name })
				return a.out.Success(newProductListView(products))
			})
		},
	})

	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Find products by approximate name",
		Long: `Find products whose names contain the query's letters in order,
closest first. When nothing matches, every product is listed so a
name can still be picked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				n := a.cfg.Catalog.SearchLimit
				if cmd.Flags().Changed("limit") {
					n = limit
				}
				products, err := a.catalog.Search(ctx, args[0], n)
				if err != nil {
					return err
				}
				return a.out.Success(newProductListView(products))
			})
		},
	}
	search.Flags().IntVar(&limit, "limit", 10, "maximum results (0 for all)")
	cmd.AddCommand(search)

	return cmd
}
