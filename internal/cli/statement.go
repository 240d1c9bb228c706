package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// StatementOptions holds flags for the statement command.
type StatementOptions struct {
	*RootOptions
	Customer string
	From     string
	To       string
}

// NewStatementCommand creates the statement command.
func NewStatementCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Print a customer's ledger statement",
		Long: `Print every bill for a customer in a date range, oldest first, with
debit and credit totals and the closing balance.

Examples:
  ledgerbook statement --customer A --from 2024-06-01 --to 2024-06-30
  ledgerbook statement --customer B --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if _, err := a.ledger.Customers().Require(opts.Customer); err != nil {
					return err
				}
				st, err := a.ledger.Statement(ctx, opts.Customer, opts.From, opts.To)
				if err != nil {
					return err
				}
				return a.out.Success(newStatementView(st))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer key (required)")
	_ = cmd.MarkFlagRequired("customer")
	cmd.Flags().StringVar(&opts.From, "from", "", "earliest date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&opts.To, "to", "", "latest date YYYY-MM-DD (inclusive)")

	return cmd
}
