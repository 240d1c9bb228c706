// Package testutil provides helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/roach88/ledgerbook/internal/recordstore"
)

// NewDB opens a fresh database in a temporary directory.
// The database is closed when the test finishes.
func NewDB(t testing.TB) *recordstore.DB {
	t.Helper()
	db, err := recordstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("recordstore.Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t testing.TB, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q) failed: %v", s, err)
	}
	return d
}
