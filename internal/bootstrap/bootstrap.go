// Package bootstrap seeds the product catalog on first run and resolves the
// readiness token the other stores wait on.
package bootstrap

import (
	"bytes"
	"context"
	_ "embed"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ledgerbook/internal/catalog"
	"github.com/roach88/ledgerbook/internal/readiness"
)

//go:embed products.yaml
var defaultSeedYAML []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// Seed is the fixed product list a fresh catalog starts with.
type Seed struct {
	Products []string `yaml:"products" validate:"min=1,dive,required"`
}

// DefaultSeed returns the built-in product list.
func DefaultSeed() Seed {
	seed, err := ParseSeed(defaultSeedYAML)
	if err != nil {
		panic(errors.Wrap(err, "embedded products.yaml"))
	}
	return seed
}

// ParseSeed decodes a YAML seed document. Unknown keys are rejected.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, errors.Wrap(err, "parse seed")
	}
	if err := validate.Struct(seed); err != nil {
		return Seed{}, errors.Wrap(err, "validate seed")
	}
	return seed, nil
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, errors.Wrapf(err, "read seed %s", path)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return Seed{}, errors.Wrapf(err, "seed %s", path)
	}
	return seed, nil
}

// Bootstrapper runs the first-run seeding once per instance.
type Bootstrapper struct {
	catalog *catalog.Store
	seed    Seed
	token   *readiness.Token

	once   sync.Once
	err    error
	seeded atomic.Int64
}

// New creates a Bootstrapper that resolves token when seeding finishes.
// A nil token gets a fresh one.
func New(cat *catalog.Store, seed Seed, token *readiness.Token) *Bootstrapper {
	if token == nil {
		token = readiness.New()
	}
	return &Bootstrapper{catalog: cat, seed: seed, token: token}
}

// Ready returns the token resolved by EnsureSeeded.
func (b *Bootstrapper) Ready() *readiness.Token {
	return b.token
}

// Seeded returns how many products the first EnsureSeeded call inserted.
// It is zero until that call finishes and safe to call at any time.
func (b *Bootstrapper) Seeded() int {
	return int(b.seeded.Load())
}

// EnsureSeeded inserts the seed list if the catalog is empty, then marks
// the token ready. Only the first call does any work; later calls return
// its result. Products that already exist are skipped.
func (b *Bootstrapper) EnsureSeeded(ctx context.Context) error {
	b.once.Do(func() {
		b.err = b.run(ctx)
		if b.err != nil {
			slog.Error("catalog seeding failed", "error", b.err)
			b.token.Fail(b.err)
			return
		}
		b.token.MarkReady()
	})
	return b.err
}

func (b *Bootstrapper) run(ctx context.Context) error {
	empty, err := b.catalog.Empty(ctx)
	if err != nil {
		return errors.Wrap(err, "ensure seeded")
	}
	if !empty {
		slog.Debug("catalog already populated, skipping seed")
		return nil
	}

	var n int64
	for _, name := range b.seed.Products {
		_, err := b.catalog.AddProduct(ctx, name)
		if errors.Is(err, catalog.ErrDuplicateProduct) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "seed product %q", name)
		}
		n++
	}

	b.seeded.Store(n)
	slog.Info("catalog seeded", "products", n)
	return nil
}
