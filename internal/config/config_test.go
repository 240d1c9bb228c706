package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledgerbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "./data/ledgerbook.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "", cfg.Catalog.SeedFile)
	assert.Equal(t, 10, cfg.Catalog.SearchLimit)
	require.Len(t, cfg.Customers, 3)
	assert.Equal(t, "A", cfg.Customers[0].Key)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/shop.db
log:
  level: DEBUG
catalog:
  seed_file: seed.yaml
  search_limit: 3
customers:
  - key: K1
    name: Kumar Stores
    address: 12 Market Rd
`)

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "/tmp/shop.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "seed.yaml", cfg.Catalog.SeedFile)
	assert.Equal(t, 3, cfg.Catalog.SearchLimit)
	require.Len(t, cfg.Customers, 1)
	assert.Equal(t, "Kumar Stores", cfg.Customers[0].Name)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	_, ok := reg.Lookup("K1")
	assert.True(t, ok)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  path: /tmp/file.db\n")
	t.Setenv("LEDGERBOOK_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("LEDGERBOOK_LOG_LEVEL", "warn")

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LEDGERBOOK_DATABASE_PATH", "/tmp/env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "./data/ledgerbook.db", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--database", "/tmp/flag.db"}))

	cfg, err := Load(Options{Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_UnchangedFlagDoesNotOverrideEnv(t *testing.T) {
	t.Setenv("LEDGERBOOK_DATABASE_PATH", "/tmp/env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "./data/ledgerbook.db", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(Options{Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "log:\n  level: loud\n"},
		{"negative search limit", "catalog:\n  search_limit: -1\n"},
		{"customer without key", "customers:\n  - name: Nobody\n"},
		{"duplicate customer", "customers:\n  - {key: A, name: One}\n  - {key: A, name: Two}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{File: writeConfig(t, tt.body)})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}
