// Package ledger stores bills: debit sales with line items and credit
// payments, numbered from the billNumber sequence.
package ledger

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date form bills are stored and filtered in.
// Lexicographic order on this layout is chronological order.
const DateLayout = "2006-01-02"

// TransactionType distinguishes sales from payments.
type TransactionType string

const (
	// Debit is a sale: the customer owes the bill total.
	Debit TransactionType = "Debit"

	// Credit is a payment received from the customer.
	Credit TransactionType = "Credit"
)

// ParseTransactionType accepts "debit" or "credit" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return Debit, nil
	case "credit":
		return Credit, nil
	default:
		return "", errors.Newf("unknown transaction type %q (want Debit or Credit)", s)
	}
}

// Item is one line of a bill.
type Item struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
	// LineTotal is UnitPrice × Quantity, or the credited amount for the single
	// line of a Credit bill.
	LineTotal decimal.Decimal
	Kind      TransactionType
	Remarks   string
}

// Bill is a persisted ledger entry.
type Bill struct {
	// ID is assigned by the store at creation and never changes.
	ID int64

	// BillNumber is the business-visible number from the billNumber sequence.
	BillNumber int64

	// CustomerKey references the customer registry.
	CustomerKey string

	// Date in DateLayout form.
	Date string

	Items           []Item
	TotalAmount     decimal.Decimal
	TransactionType TransactionType
	Remarks         string
}

// DraftItem is a line the user entered.
type DraftItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  decimal.Decimal
}

// Draft is a bill before it has a number.
type Draft struct {
	CustomerKey     string
	Date            string
	TransactionType TransactionType

	// Items are required for Debit drafts and ignored for Credit drafts.
	Items []DraftItem

	// CreditAmount is required (positive) for Credit drafts.
	CreditAmount decimal.Decimal

	Remarks string
}

// Filter narrows ListBills. Empty fields impose no constraint.
type Filter struct {
	StartDate       string
	EndDate         string
	CustomerKey     string
	TransactionType TransactionType
}

// validate rejects malformed dates and unknown transaction types.
func (f Filter) validate() error {
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return errors.Mark(errors.Newf("invalid filter date %q", d), ErrInvalidFilter)
		}
	}
	if f.TransactionType != "" && f.TransactionType != Debit && f.TransactionType != Credit {
		return errors.Mark(errors.Newf("invalid filter transaction type %q", f.TransactionType), ErrInvalidFilter)
	}
	return nil
}

// matches reports whether b satisfies every present field of f.
// Date bounds are inclusive.
func (f Filter) matches(b billRecord) bool {
	if f.StartDate != "" && b.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && b.Date > f.EndDate {
		return false
	}
	if f.CustomerKey != "" && b.CustomerKey != f.CustomerKey {
		return false
	}
	if f.TransactionType != "" && TransactionType(b.TransactionType) != f.TransactionType {
		return false
	}
	return true
}
