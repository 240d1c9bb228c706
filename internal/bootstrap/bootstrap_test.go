package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerbook/internal/catalog"
	"github.com/roach88/ledgerbook/internal/match"
	"github.com/roach88/ledgerbook/internal/readiness"
	"github.com/roach88/ledgerbook/internal/recordstore"
	"github.com/roach88/ledgerbook/internal/testutil"
)

func openCatalog(t *testing.T, db *recordstore.DB) *catalog.Store {
	t.Helper()
	cat, err := catalog.Open(context.Background(), db, match.Fuzzy{})
	require.NoError(t, err)
	return cat
}

func productNames(t *testing.T, cat *catalog.Store) []string {
	t.Helper()
	products, err := cat.ListProducts(context.Background())
	require.NoError(t, err)
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	sort.Strings(out)
	return out
}

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	assert.Len(t, seed.Products, 51)
	assert.Equal(t, "நாட்டு சக்கரை (Country sugar)", seed.Products[0])
	assert.Contains(t, seed.Products, "மனத்தக்காலி வத்தல் (Bird's eye chili)")
}

func TestEnsureSeeded_TwiceSeedsOnce(t *testing.T) {
	cat := openCatalog(t, testutil.NewDB(t))
	seed := Seed{Products: []string{"Rice", "Ragi", "Red corn"}}
	b := New(cat, seed, nil)
	ctx := context.Background()

	require.NoError(t, b.EnsureSeeded(ctx))
	require.NoError(t, b.EnsureSeeded(ctx))

	assert.Equal(t, []string{"Ragi", "Red corn", "Rice"}, productNames(t, cat))
	assert.Equal(t, 3, b.Seeded())
	assert.True(t, b.Ready().Ready())
}

func TestEnsureSeeded_SeparateInstancesSeedOnce(t *testing.T) {
	db := testutil.NewDB(t)
	seed := Seed{Products: []string{"Rice", "Ragi"}}
	ctx := context.Background()

	first := New(openCatalog(t, db), seed, nil)
	require.NoError(t, first.EnsureSeeded(ctx))

	cat := openCatalog(t, db)
	second := New(cat, seed, nil)
	require.NoError(t, second.EnsureSeeded(ctx))

	assert.Equal(t, 0, second.Seeded())
	assert.Equal(t, []string{"Ragi", "Rice"}, productNames(t, cat))
}

func TestEnsureSeeded_SkipsPopulatedCatalog(t *testing.T) {
	cat := openCatalog(t, testutil.NewDB(t))
	ctx := context.Background()
	_, err := cat.AddProduct(ctx, "Salt")
	require.NoError(t, err)

	b := New(cat, Seed{Products: []string{"Rice"}}, nil)
	require.NoError(t, b.EnsureSeeded(ctx))
	assert.Equal(t, []string{"Salt"}, productNames(t, cat))
}

func TestEnsureSeeded_IgnoresDuplicateEntries(t *testing.T) {
	cat := openCatalog(t, testutil.NewDB(t))
	b := New(cat, Seed{Products: []string{"Rice", "RICE", "Ragi"}}, nil)

	require.NoError(t, b.EnsureSeeded(context.Background()))
	assert.Equal(t, []string{"Ragi", "Rice"}, productNames(t, cat))
	assert.Equal(t, 2, b.Seeded())
}

func TestEnsureSeeded_ResolvesSharedToken(t *testing.T) {
	db := testutil.NewDB(t)
	token := readiness.New()
	cat, err := catalog.Open(context.Background(), db, match.Fuzzy{}, catalog.WithReadiness(token))
	require.NoError(t, err)

	assert.False(t, token.Ready())
	b := New(cat, DefaultSeed(), token)
	require.NoError(t, b.EnsureSeeded(context.Background()))

	require.NoError(t, token.Wait(context.Background()))
	assert.Len(t, productNames(t, cat), 51)
}

func TestEnsureSeeded_FailureFailsToken(t *testing.T) {
	db := testutil.NewDB(t)
	cat := openCatalog(t, db)
	require.NoError(t, db.Close())

	b := New(cat, Seed{Products: []string{"Rice"}}, nil)
	err := b.EnsureSeeded(context.Background())
	require.Error(t, err)

	assert.False(t, b.Ready().Ready())
	assert.Error(t, b.Ready().Wait(context.Background()))
	assert.Equal(t, err, b.EnsureSeeded(context.Background()))
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte("products:\n  - Rice\n  - Ragi\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice", "Ragi"}, seed.Products)

	_, err = ParseSeed([]byte("products: []\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("products:\n  - \"\"\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("items:\n  - Rice\n"))
	assert.Error(t, err)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - Salt\n"), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Salt"}, seed.Products)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSeeded_SafeDuringSeeding(t *testing.T) {
	cat := openCatalog(t, testutil.NewDB(t))
	b := New(cat, DefaultSeed(), nil)
	ctx := context.Background()

	var wg conc.WaitGroup
	wg.Go(func() {
		assert.NoError(t, b.EnsureSeeded(ctx))
	})
	for i := 0; i < 4; i++ {
		wg.Go(func() {
			for {
				select {
				case <-b.Ready().Done():
					return
				default:
				}
				n := b.Seeded()
				assert.True(t, n == 0 || n == 51, "partial count %d", n)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 51, b.Seeded())
}
