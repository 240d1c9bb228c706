package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed an empty catalog with the default product list",
		Long: `Seed an empty catalog with the default product list, or the list named
by --seed-file. Every command does this on first run; seed only reports
what happened. A catalog that already has products is left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				products, err := a.catalog.ListProducts(ctx)
				if err != nil {
					return err
				}
				return a.out.Success(seedView{Seeded: a.boot.Seeded(), Total: len(products)})
			})
		},
	}
}
