package ledger

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// StatementEntry is one row of a customer statement.
type StatementEntry struct {
	Date        string
	Particulars string
	Type        TransactionType
	BillNumber  int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Statement summarizes a customer's bills over a date range.
type Statement struct {
	Customer  Customer
	StartDate string
	EndDate   string
	Entries   []StatementEntry

	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal

	// ClosingBalance is always non-negative; BalanceType says which side it
	// falls on. A zero balance is reported as Debit.
	ClosingBalance decimal.Decimal
	BalanceType    TransactionType
}

// Statement builds the statement for customerKey between start and end,
// inclusive. Either bound may be empty. A key missing from the registry is
// reported under its own name.
func (s *Store) Statement(ctx context.Context, customerKey, start, end string) (Statement, error) {
	customer, ok := s.customers.Lookup(customerKey)
	if !ok {
		customer = Customer{Key: customerKey, Name: customerKey}
	}

	bills, err := s.ListBills(ctx, Filter{StartDate: start, EndDate: end, CustomerKey: customerKey})
	if err != nil {
		return Statement{}, errors.Wrap(err, "statement")
	}
	SortBills(bills)

	st := Statement{
		Customer:    customer,
		StartDate:   start,
		EndDate:     end,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	st.Entries = lo.Map(bills, func(b Bill, _ int) StatementEntry {
		e := StatementEntry{
			Date:       b.Date,
			Type:       b.TransactionType,
			BillNumber: b.BillNumber,
			Debit:      decimal.Zero,
			Credit:     decimal.Zero,
		}
		if b.TransactionType == Debit {
			e.Particulars = "To Sales"
			e.Debit = b.TotalAmount
		} else {
			e.Particulars = "By " + lo.Ternary(b.Remarks != "", b.Remarks, defaultCreditLine)
			e.Credit = b.TotalAmount
		}
		return e
	})

	for _, e := range st.Entries {
		st.TotalDebit = st.TotalDebit.Add(e.Debit)
		st.TotalCredit = st.TotalCredit.Add(e.Credit)
	}
	balance := st.TotalDebit.Sub(st.TotalCredit)
	st.BalanceType = Debit
	if balance.IsNegative() {
		st.BalanceType = Credit
	}
	st.ClosingBalance = balance.Abs()
	return st, nil
}
