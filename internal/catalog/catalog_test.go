package catalog

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerbook/internal/match"
	"github.com/roach88/ledgerbook/internal/readiness"
	"github.com/roach88/ledgerbook/internal/testutil"
)

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), testutil.NewDB(t), match.Fuzzy{}, opts...)
	require.NoError(t, err)
	return s
}

func names(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestAddProduct(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s := newStore(t, WithClock(func() time.Time { return fixed }))

	p, err := s.AddProduct(context.Background(), "  Ragi flour \t")
	require.NoError(t, err)
	assert.Positive(t, p.ID)
	assert.Equal(t, "Ragi flour", p.Name)
	assert.True(t, fixed.Equal(p.CreatedAt))
}

func TestAddProduct_Duplicate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddProduct(ctx, "Rice")
	require.NoError(t, err)

	_, err = s.AddProduct(ctx, "Rice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateProduct), "got %v", err)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice"}, names(products))
}

func TestAddProduct_DuplicateIgnoresCase(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddProduct(ctx, "Red Corn")
	require.NoError(t, err)

	for _, name := range []string{"red corn", "RED  CORN", " Red corn "} {
		_, err = s.AddProduct(ctx, name)
		assert.True(t, errors.Is(err, ErrDuplicateProduct), "%q: got %v", name, err)
	}

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestAddProduct_Blank(t *testing.T) {
	s := newStore(t)

	_, err := s.AddProduct(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrInvalidProduct))
}

func TestGetProduct(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddProduct(ctx, "Country Sugar")
	require.NoError(t, err)

	p, found, err := s.GetProduct(ctx, "country sugar")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Country Sugar", p.Name)

	_, found, err = s.GetProduct(ctx, "salt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListProducts_Empty(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	empty, err := s.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestSearch(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, n := range []string{"Ragi flour", "Rice", "Ragi", "Red corn"} {
		_, err := s.AddProduct(ctx, n)
		require.NoError(t, err)
	}

	got, err := s.Search(ctx, "ragi", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ragi", "Ragi flour"}, names(got))

	got, err = s.Search(ctx, "ragi", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ragi"}, names(got))

	got, err = s.Search(ctx, "", 0)
	require.NoError(t, err)
	all := names(got)
	sort.Strings(all)
	assert.Equal(t, []string{"Ragi", "Ragi flour", "Red corn", "Rice"}, all)
}

type reverseMatcher struct{}

func (reverseMatcher) Match(corpus []string, _ string) []string {
	out := make([]string, 0, len(corpus))
	for i := len(corpus) - 1; i >= 0; i-- {
		out = append(out, corpus[i])
	}
	return append(out, "not a product")
}

func TestSearch_DelegatesRanking(t *testing.T) {
	s, err := Open(context.Background(), testutil.NewDB(t), reverseMatcher{})
	require.NoError(t, err)
	ctx := context.Background()

	for _, n := range []string{"a", "b", "c"} {
		_, err := s.AddProduct(ctx, n)
		require.NoError(t, err)
	}

	got, err := s.Search(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, names(got))
}

func TestStore_ReadsWaitForReadiness(t *testing.T) {
	token := readiness.New()
	s := newStore(t, WithReadiness(token))

	// Writes are not gated.
	_, err := s.AddProduct(context.Background(), "Rice")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.ListProducts(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	token.MarkReady()
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("Ragi Flour"), FoldName("  ragi   FLOUR "))
	assert.Equal(t, FoldName("STRASSE"), FoldName("straße"))
	assert.NotEqual(t, FoldName("Ragi"), FoldName("Ragi flour"))
}
