package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewCustomersCommand creates the customers command.
func NewCustomersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List registered customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				return a.out.Success(customerListView{Customers: a.ledger.Customers().All()})
			})
		},
	}
}
