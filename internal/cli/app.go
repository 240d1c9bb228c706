package cli

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/ledgerbook/internal/bootstrap"
	"github.com/roach88/ledgerbook/internal/catalog"
	"github.com/roach88/ledgerbook/internal/config"
	"github.com/roach88/ledgerbook/internal/ledger"
	"github.com/roach88/ledgerbook/internal/logging"
	"github.com/roach88/ledgerbook/internal/match"
	"github.com/roach88/ledgerbook/internal/readiness"
	"github.com/roach88/ledgerbook/internal/recordstore"
	"github.com/roach88/ledgerbook/internal/sequence"
)

// app is the set of stores one command invocation works with.
type app struct {
	cfg     *config.Config
	db      *recordstore.DB
	ledger  *ledger.Store
	catalog *catalog.Store
	boot    *bootstrap.Bootstrapper
	out     *OutputFormatter
}

// openApp loads configuration, opens the database and seeds the catalog.
// The caller must Close the app.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(config.Options{File: opts.ConfigFile, Flags: cmd.Flags()})
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return nil, err
		}
		return nil, errors.Mark(err, errConfig)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.Mark(err, errConfig)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logging.Setup(cmd.ErrOrStderr(), level)
	if cfg.File != "" {
		slog.Debug("using config file", "path", cfg.File)
	}

	seed := bootstrap.DefaultSeed()
	if cfg.Catalog.SeedFile != "" {
		seed, err = bootstrap.LoadSeed(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, errors.Mark(err, errConfig)
		}
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, errors.Mark(err, errConfig)
	}

	slog.Debug("opening database", "path", cfg.Database.Path)
	db, err := recordstore.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a, err := wire(ctx, db, registry, seed)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
		return nil, err
	}
	a.cfg = cfg
	a.out = NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return a, nil
}

// wire builds the stores over db, sharing one readiness token, and runs
// the first-run seeding.
func wire(ctx context.Context, db *recordstore.DB, registry *ledger.Registry, seed bootstrap.Seed) (*app, error) {
	token := readiness.New()

	cat, err := catalog.Open(ctx, db, match.Fuzzy{FallbackToCorpus: true}, catalog.WithReadiness(token))
	if err != nil {
		return nil, err
	}
	bills, err := ledger.Open(ctx, db, sequence.New(db), registry, token)
	if err != nil {
		return nil, err
	}

	boot := bootstrap.New(cat, seed, token)
	if err := boot.EnsureSeeded(ctx); err != nil {
		return nil, err
	}

	return &app{db: db, ledger: bills, catalog: cat, boot: boot}, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}
