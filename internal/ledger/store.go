package ledger

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/roach88/ledgerbook/internal/readiness"
	"github.com/roach88/ledgerbook/internal/recordstore"
	"github.com/roach88/ledgerbook/internal/sequence"
)

// BillNumberSequence is the counter bill numbers are drawn from.
const BillNumberSequence = "billNumber"

// defaultCreditLine names the single line of a Credit bill without remarks.
const defaultCreditLine = "Credit Entry"

// Store provides the bill operations.
// Safe for concurrent use.
type Store struct {
	db        *recordstore.DB
	bills     *recordstore.Collection[billRecord]
	seq       *sequence.Allocator
	customers *Registry
	ready     *readiness.Token
}

// Open defines the bills container on db and returns a Store.
//
// Every operation waits on ready before touching storage; a nil token does
// not gate. A nil registry means DefaultRegistry. The registry names
// customers for display; bills are stored under any non-empty key.
func Open(ctx context.Context, db *recordstore.DB, seq *sequence.Allocator, customers *Registry, ready *readiness.Token) (*Store, error) {
	bills, err := recordstore.Define[billRecord](ctx, db, billsSchema)
	if err != nil {
		return nil, errors.Wrap(err, "open ledger")
	}
	if customers == nil {
		customers = DefaultRegistry()
	}
	return &Store{db: db, bills: bills, seq: seq, customers: customers, ready: ready}, nil
}

// Customers returns the customer registry.
func (s *Store) Customers() *Registry {
	return s.customers
}

// NextBillNumber returns the number the next CreateBill will receive,
// without consuming it.
func (s *Store) NextBillNumber(ctx context.Context) (int64, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return 0, errors.Wrap(err, "wait for readiness")
	}
	return s.seq.Peek(ctx, BillNumberSequence)
}

// CreateBill validates d, allocates the next bill number and persists the
// bill. The draft is validated before a number is allocated, so rejected
// drafts never leave gaps in the sequence.
//
// Returns ErrInvalidBill for bad drafts and ErrDuplicateBillNumber if the
// number is already taken. The customer key is not checked against the
// registry; callers that take user input use Registry.Require.
func (s *Store) CreateBill(ctx context.Context, d Draft) (Bill, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return Bill{}, errors.Wrap(err, "wait for readiness")
	}

	bill, err := s.build(d)
	if err != nil {
		return Bill{}, err
	}

	n, err := s.seq.Next(ctx, BillNumberSequence)
	if err != nil {
		return Bill{}, errors.Wrap(err, "allocate bill number")
	}
	bill.BillNumber = n

	return s.insert(ctx, bill, false)
}

// ImportBill persists a bill that already carries its number, for example
// one restored from an export. The bill must satisfy the same invariants
// CreateBill establishes. The insert and the advance of the billNumber
// counter past the imported number commit in one transaction.
func (s *Store) ImportBill(ctx context.Context, b Bill) (Bill, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return Bill{}, errors.Wrap(err, "wait for readiness")
	}
	if b.BillNumber < 1 || b.BillNumber == math.MaxInt64 {
		return Bill{}, invalid("bill number %d is out of range", b.BillNumber)
	}
	if err := checkHeader(b.CustomerKey, b.Date, b.TransactionType); err != nil {
		return Bill{}, err
	}
	if err := checkItems(b); err != nil {
		return Bill{}, err
	}

	b.ID = 0
	return s.insert(ctx, b, true)
}

// checkItems verifies the line and total invariants of an imported bill.
// Debit lines carry lineTotal = unitPrice × quantity and the total is their
// sum. A Credit bill carries a positive total; its lines hold the credited
// amount directly.
func checkItems(b Bill) error {
	for _, it := range b.Items {
		if strings.TrimSpace(it.Name) == "" {
			return invalid("item has no name")
		}
		if it.Kind != b.TransactionType {
			return invalid("item %q is %s on a %s bill", it.Name, it.Kind, b.TransactionType)
		}
		if it.UnitPrice.IsNegative() || it.Quantity.IsNegative() {
			return invalid("item %q has a negative price or quantity", it.Name)
		}
	}

	if b.TransactionType == Credit {
		if !b.TotalAmount.IsPositive() {
			return invalid("credit amount must be positive, got %s", b.TotalAmount)
		}
		return nil
	}

	if len(b.Items) == 0 {
		return invalid("debit bill needs at least one item")
	}
	for _, it := range b.Items {
		if want := it.UnitPrice.Mul(it.Quantity); !it.LineTotal.Equal(want) {
			return invalid("item %q has line total %s, want %s", it.Name, it.LineTotal, want)
		}
	}
	if sum := sumLines(b.Items); !b.TotalAmount.Equal(sum) {
		return invalid("total %s does not match line totals %s", b.TotalAmount, sum)
	}
	return nil
}

// insert persists b. With advance set, the billNumber counter is raised
// past b.BillNumber in the same transaction.
func (s *Store) insert(ctx context.Context, b Bill, advance bool) (Bill, error) {
	var id int64
	err := s.db.Update(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		id, err = s.bills.InsertTx(ctx, tx, toRecord(b))
		if err != nil || !advance {
			return err
		}
		return s.seq.AdvanceToTx(ctx, tx, BillNumberSequence, b.BillNumber+1)
	})
	switch {
	case errors.Is(err, recordstore.ErrConstraintViolation):
		return Bill{}, errors.Mark(
			errors.Wrapf(err, "bill number %d", b.BillNumber), ErrDuplicateBillNumber)
	case errors.Is(err, recordstore.ErrInvalidRecord):
		return Bill{}, errors.Mark(err, ErrInvalidBill)
	case err != nil:
		slog.Error("bill insert failed", "bill_number", b.BillNumber, "error", err)
		return Bill{}, errors.Wrap(err, "create bill")
	}

	b.ID = id
	slog.Debug("bill created",
		"id", id,
		"bill_number", b.BillNumber,
		"customer", b.CustomerKey,
		"type", b.TransactionType,
		"total", b.TotalAmount.StringFixed(2),
	)
	return b, nil
}

// build turns a draft into a bill without a number.
func (s *Store) build(d Draft) (Bill, error) {
	if err := checkHeader(d.CustomerKey, d.Date, d.TransactionType); err != nil {
		return Bill{}, err
	}
	remarks := strings.TrimSpace(d.Remarks)

	bill := Bill{
		CustomerKey:     d.CustomerKey,
		Date:            d.Date,
		TransactionType: d.TransactionType,
		Remarks:         remarks,
	}

	if d.TransactionType == Credit {
		if !d.CreditAmount.IsPositive() {
			return Bill{}, invalid("credit amount must be positive, got %s", d.CreditAmount)
		}
		name := remarks
		if name == "" {
			name = defaultCreditLine
		}
		bill.Items = []Item{{
			Name:      name,
			UnitPrice: decimal.Zero,
			Quantity:  decimal.Zero,
			LineTotal: d.CreditAmount,
			Kind:      Credit,
			Remarks:   remarks,
		}}
		bill.TotalAmount = d.CreditAmount
		return bill, nil
	}

	if len(d.Items) == 0 {
		return Bill{}, invalid("debit bill needs at least one item")
	}
	bill.Items = make([]Item, 0, len(d.Items))
	for i, di := range d.Items {
		name := strings.TrimSpace(di.Name)
		if name == "" {
			return Bill{}, invalid("item %d has no name", i+1)
		}
		if di.UnitPrice.IsNegative() {
			return Bill{}, invalid("item %q has negative unit price %s", name, di.UnitPrice)
		}
		if di.Quantity.IsNegative() {
			return Bill{}, invalid("item %q has negative quantity %s", name, di.Quantity)
		}
		bill.Items = append(bill.Items, Item{
			Name:      name,
			UnitPrice: di.UnitPrice,
			Quantity:  di.Quantity,
			LineTotal: di.UnitPrice.Mul(di.Quantity),
			Kind:      Debit,
		})
	}
	bill.TotalAmount = sumLines(bill.Items)
	return bill, nil
}

func sumLines(items []Item) decimal.Decimal {
	return lo.Reduce(items, func(sum decimal.Decimal, it Item, _ int) decimal.Decimal {
		return sum.Add(it.LineTotal)
	}, decimal.Zero)
}

func checkHeader(customerKey, date string, tt TransactionType) error {
	if strings.TrimSpace(customerKey) == "" {
		return invalid("customer key is empty")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return invalid("date %q is not YYYY-MM-DD", date)
	}
	if tt != Debit && tt != Credit {
		return invalid("unknown transaction type %q", tt)
	}
	return nil
}

// GetBill returns the bill with the given number.
// Absence is found=false with a nil error.
func (s *Store) GetBill(ctx context.Context, billNumber int64) (Bill, bool, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return Bill{}, false, errors.Wrap(err, "wait for readiness")
	}
	rec, found, err := s.bills.GetByIndex(ctx, "billNumber", billNumber)
	if err != nil || !found {
		return Bill{}, false, err
	}
	return fromRecord(rec), true, nil
}

// ListBills returns every bill matching f. Date bounds are inclusive.
// The result order is unspecified; use SortBills when it matters.
func (s *Store) ListBills(ctx context.Context, f Filter) ([]Bill, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := s.ready.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait for readiness")
	}

	records, err := s.bills.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list bills")
	}
	matched := lo.Filter(records, func(r recordstore.Record[billRecord], _ int) bool {
		return f.matches(r.Value)
	})
	return lo.Map(matched, func(r recordstore.Record[billRecord], _ int) Bill {
		return fromRecord(r)
	}), nil
}

// DeleteBill removes the bill with the given number.
// Returns false (not an error) if there was none.
func (s *Store) DeleteBill(ctx context.Context, billNumber int64) (bool, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return false, errors.Wrap(err, "wait for readiness")
	}
	removed, err := s.bills.DeleteByIndex(ctx, "billNumber", billNumber)
	if err != nil {
		return false, err
	}
	if removed {
		slog.Debug("bill deleted", "bill_number", billNumber)
	}
	return removed, nil
}

// Total sums TotalAmount over the bills matching f.
func (s *Store) Total(ctx context.Context, f Filter) (decimal.Decimal, error) {
	bills, err := s.ListBills(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	return SumTotals(bills), nil
}

// SumTotals adds up TotalAmount across bills.
func SumTotals(bills []Bill) decimal.Decimal {
	return lo.Reduce(bills, func(sum decimal.Decimal, b Bill, _ int) decimal.Decimal {
		return sum.Add(b.TotalAmount)
	}, decimal.Zero)
}

// SortBills orders bills by date, then bill number.
func SortBills(bills []Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		if bills[i].Date != bills[j].Date {
			return bills[i].Date < bills[j].Date
		}
		return bills[i].BillNumber < bills[j].BillNumber
	})
}
