// Package catalog stores the product master list.
//
// Product names are unique ignoring case: each product is stored with a
// folded key (NFC normalized, Unicode case folded, inner whitespace
// collapsed) and the unique index is on that key. The name itself keeps the
// spelling it was added with.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ledgerbook/internal/readiness"
	"github.com/roach88/ledgerbook/internal/recordstore"
)

var (
	// ErrDuplicateProduct is returned when a product with the same folded
	// name exists.
	ErrDuplicateProduct = errors.New("duplicate product")

	// ErrInvalidProduct is returned for blank product names.
	ErrInvalidProduct = errors.New("invalid product")
)

var productsSchema = recordstore.Schema{
	Name:    "products",
	Version: 1,
	Indexes: []recordstore.Index{
		{Field: "nameKey", Unique: true},
		{Field: "name"},
	},
}

type productRecord struct {
	Name      string    `json:"name" validate:"required"`
	NameKey   string    `json:"nameKey" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a catalog entry.
type Product struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Matcher ranks corpus entries against a query, best first.
type Matcher interface {
	Match(corpus []string, query string) []string
}

// Store provides the product operations.
// Safe for concurrent use.
type Store struct {
	products *recordstore.Collection[productRecord]
	matcher  Matcher
	ready    *readiness.Token
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithReadiness makes read operations wait on token.
// Writes are never gated, since seeding itself goes through AddProduct.
func WithReadiness(token *readiness.Token) Option {
	return func(s *Store) { s.ready = token }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open defines the products container on db and returns a Store that
// delegates Search ranking to matcher.
func Open(ctx context.Context, db *recordstore.DB, matcher Matcher, opts ...Option) (*Store, error) {
	products, err := recordstore.Define[productRecord](ctx, db, productsSchema)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	s := &Store{products: products, matcher: matcher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FoldName returns the key product names are compared by.
// A Caser is stateful, so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.Join(strings.Fields(name), " ")))
}

// AddProduct trims name and stores it.
// Returns ErrInvalidProduct for a blank name and ErrDuplicateProduct if a
// product with the same folded name exists.
func (s *Store) AddProduct(ctx context.Context, name string) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, errors.Mark(errors.New("product name is empty"), ErrInvalidProduct)
	}

	rec := productRecord{Name: name, NameKey: FoldName(name), CreatedAt: s.now().UTC()}
	id, err := s.products.Insert(ctx, rec)
	if errors.Is(err, recordstore.ErrConstraintViolation) {
		return Product{}, errors.Mark(errors.Wrapf(err, "product %q", name), ErrDuplicateProduct)
	}
	if err != nil {
		return Product{}, errors.Wrap(err, "add product")
	}

	slog.Debug("product added", "id", id, "name", name)
	return Product{ID: id, Name: rec.Name, CreatedAt: rec.CreatedAt}, nil
}

// GetProduct looks a product up by name, ignoring case.
func (s *Store) GetProduct(ctx context.Context, name string) (Product, bool, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return Product{}, false, errors.Wrap(err, "wait for readiness")
	}
	rec, found, err := s.products.GetByIndex(ctx, "nameKey", FoldName(name))
	if err != nil || !found {
		return Product{}, false, err
	}
	return toProduct(rec), true, nil
}

// ListProducts returns every product. The order is unspecified.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	if err := s.ready.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait for readiness")
	}
	return s.all(ctx)
}

// Empty reports whether the catalog holds no products. It does not wait on
// readiness.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	n, err := s.products.Count(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count products")
	}
	return n == 0, nil
}

func (s *Store) all(ctx context.Context) ([]Product, error) {
	records, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return lo.Map(records, func(r recordstore.Record[productRecord], _ int) Product {
		return toProduct(r)
	}), nil
}

// Search ranks products against query with the store's Matcher and returns
// at most limit results (all of them when limit <= 0).
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	byName := lo.KeyBy(products, func(p Product) string { return p.Name })
	names := lo.Map(products, func(p Product, _ int) string { return p.Name })

	ranked := s.matcher.Match(names, query)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return lo.FilterMap(ranked, func(name string, _ int) (Product, bool) {
		p, ok := byName[name]
		return p, ok
	}), nil
}

func toProduct(r recordstore.Record[productRecord]) Product {
	return Product{ID: r.ID, Name: r.Value.Name, CreatedAt: r.Value.CreatedAt}
}
