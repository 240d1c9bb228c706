package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/ledgerbook/internal/draft"
	"github.com/roach88/ledgerbook/internal/ledger"
)

// NewBillCommand creates the bill command group.
func NewBillCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Create, inspect and delete bills",
	}

	cmd.AddCommand(newBillCreateCommand(rootOpts))
	cmd.AddCommand(newBillGetCommand(rootOpts))
	cmd.AddCommand(newBillListCommand(rootOpts))
	cmd.AddCommand(newBillDeleteCommand(rootOpts))
	cmd.AddCommand(newBillTotalCommand(rootOpts))
	cmd.AddCommand(newBillNextCommand(rootOpts))

	return cmd
}

// BillCreateOptions holds flags for the bill create command.
type BillCreateOptions struct {
	*RootOptions
	Customer string
	Date     string
	Type     string
	Items    []string
	Amount   string
	Remarks  string
	File     string
}

func newBillCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BillCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a debit or credit bill",
		Long: `Create a bill and assign it the next bill number.

A debit bill needs one or more --item flags of the form name:price:quantity.
A credit bill needs --amount; its remarks name the payment.

Alternatively pass --file with a YAML or CUE draft.

Examples:
  ledgerbook bill create --customer A --item "Ragi flour:45.50:2"
  ledgerbook bill create --customer B --type credit --amount 500 --remarks UPI
  ledgerbook bill create --file draft.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.draft()
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if _, err := a.ledger.Customers().Require(d.CustomerKey); err != nil {
					return err
				}
				b, err := a.ledger.CreateBill(ctx, d)
				if err != nil {
					return err
				}
				return a.out.Success(newBillView(b, a.ledger.Customers()))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer key")
	cmd.Flags().StringVar(&opts.Date, "date", "", "bill date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Type, "type", "debit", "transaction type (debit|credit)")
	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "line item name:price:quantity (repeatable)")
	cmd.Flags().StringVar(&opts.Amount, "amount", "", "credit amount")
	cmd.Flags().StringVar(&opts.Remarks, "remarks", "", "remarks")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the draft from a .yaml, .yml or .cue file")

	return cmd
}

// draft builds the bill draft from the file or the flags.
func (o *BillCreateOptions) draft() (ledger.Draft, error) {
	if o.File != "" {
		return draft.Load(o.File)
	}

	tt, err := ledger.ParseTransactionType(o.Type)
	if err != nil {
		return ledger.Draft{}, errors.Mark(err, errInvalidInput)
	}
	date := o.Date
	if date == "" {
		date = time.Now().Format(ledger.DateLayout)
	}

	d := ledger.Draft{
		CustomerKey:     o.Customer,
		Date:            date,
		TransactionType: tt,
		Remarks:         o.Remarks,
	}
	if o.Amount != "" {
		d.CreditAmount, err = decimal.NewFromString(o.Amount)
		if err != nil {
			return ledger.Draft{}, errors.Mark(errors.Newf("invalid amount %q", o.Amount), errInvalidInput)
		}
	}
	for _, raw := range o.Items {
		it, err := parseItem(raw)
		if err != nil {
			return ledger.Draft{}, err
		}
		d.Items = append(d.Items, it)
	}
	return d, nil
}

// parseItem parses name:price:quantity. The name may itself contain colons.
func parseItem(raw string) (ledger.DraftItem, error) {
	bad := func() (ledger.DraftItem, error) {
		return ledger.DraftItem{}, errors.Mark(
			errors.Newf("invalid item %q: want name:price:quantity", raw), errInvalidInput)
	}

	qtyAt := strings.LastIndex(raw, ":")
	if qtyAt < 0 {
		return bad()
	}
	priceAt := strings.LastIndex(raw[:qtyAt], ":")
	if priceAt < 0 {
		return bad()
	}

	price, err := decimal.NewFromString(strings.TrimSpace(raw[priceAt+1 : qtyAt]))
	if err != nil {
		return bad()
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(raw[qtyAt+1:]))
	if err != nil {
		return bad()
	}
	return ledger.DraftItem{Name: raw[:priceAt], UnitPrice: price, Quantity: qty}, nil
}

func parseBillNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, errors.Mark(errors.Newf("invalid bill number %q", s), errInvalidInput)
	}
	return n, nil
}

func newBillGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <bill-number>",
		Short: "Show one bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseBillNumber(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				b, found, err := a.ledger.GetBill(ctx, n)
				if err != nil {
					return err
				}
				if !found {
					return errors.Mark(errors.Newf("bill %d not found", n), errNotFound)
				}
				return a.out.Success(newBillView(b, a.ledger.Customers()))
			})
		},
	}
}

// FilterOptions holds the bill filter flags shared by list and total.
type FilterOptions struct {
	From     string
	To       string
	Customer string
	Type     string
}

func (o *FilterOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.From, "from", "", "earliest date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&o.To, "to", "", "latest date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&o.Customer, "customer", "", "customer key")
	cmd.Flags().StringVar(&o.Type, "type", "", "transaction type (debit|credit)")
}

func (o *FilterOptions) filter() (ledger.Filter, error) {
	f := ledger.Filter{StartDate: o.From, EndDate: o.To, CustomerKey: o.Customer}
	if o.Type != "" {
		tt, err := ledger.ParseTransactionType(o.Type)
		if err != nil {
			return ledger.Filter{}, errors.Mark(err, errInvalidInput)
		}
		f.TransactionType = tt
	}
	return f, nil
}

func newBillListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				bills, err := a.ledger.ListBills(ctx, f)
				if err != nil {
					return err
				}
				ledger.SortBills(bills)
				views := make([]billView, len(bills))
				for i, b := range bills {
					views[i] = newBillView(b, a.ledger.Customers())
				}
				return a.out.Success(billListView{
					Bills: views,
					Count: len(bills),
					Total: ledger.SumTotals(bills).StringFixed(2),
				})
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newBillTotalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "total",
		Short: "Sum bill totals matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.filter()
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				total, err := a.ledger.Total(ctx, f)
				if err != nil {
					return err
				}
				return a.out.Success(totalView{Total: total.StringFixed(2)})
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newBillDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bill-number>",
		Short: "Delete a bill",
		Long: `Delete a bill by number. Its number is not handed out again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseBillNumber(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				removed, err := a.ledger.DeleteBill(ctx, n)
				if err != nil {
					return err
				}
				if !removed {
					return errors.Mark(errors.Newf("bill %d not found", n), errNotFound)
				}
				return a.out.Success(deleteView{BillNumber: n, Deleted: true})
			})
		},
	}
}

func newBillNextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the number the next bill will get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				n, err := a.ledger.NextBillNumber(ctx)
				if err != nil {
					return err
				}
				return a.out.Success(nextView{BillNumber: n})
			})
		},
	}
}
