// Package sequence issues strictly increasing integers per named counter.
//
// Counters live in the counters table of a recordstore.DB. Each allocation is
// a single INSERT ... ON CONFLICT ... RETURNING statement inside one
// transaction, so concurrent callers can never observe the same current
// value.
package sequence

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/roach88/ledgerbook/internal/recordstore"
)

// ErrInvalidName is returned for an empty counter name.
var ErrInvalidName = errors.New("invalid sequence name")

// nextSQL creates the counter at 2 (handing out 1) or increments it, and
// returns the value that was current before the statement ran.
const nextSQL = `
	INSERT INTO counters (name, value) VALUES (?, 2)
	ON CONFLICT(name) DO UPDATE SET value = value + 1
	RETURNING value - 1
`

// advanceSQL raises a counter so that the next value handed out is at
// least the given floor. It never lowers a counter.
const advanceSQL = `
	INSERT INTO counters (name, value) VALUES (?1, ?2)
	ON CONFLICT(name) DO UPDATE SET value = MAX(value, excluded.value)
`

// Allocator hands out values from named counters.
// Safe for concurrent use.
type Allocator struct {
	db *recordstore.DB
}

// New creates an Allocator over db.
func New(db *recordstore.DB) *Allocator {
	return &Allocator{db: db}
}

// Next returns the current value of the named counter and advances it by one.
// The first call for an unseen name returns 1.
func (a *Allocator) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidName
	}

	var n int64
	err := a.db.Update(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, nextSQL, name).Scan(&n)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "next %s", name)
	}
	return n, nil
}

// Peek returns the value the next call to Next would hand out, without
// consuming it. The answer may be stale as soon as it is returned.
func (a *Allocator) Peek(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidName
	}

	n := int64(1)
	err := a.db.View(ctx, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT value FROM counters WHERE name = ?", name,
		).Scan(&n)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "peek %s", name)
	}
	return n, nil
}

// AdvanceTo makes sure the next value handed out for name is at least floor.
// Used after records carrying externally assigned numbers are imported.
func (a *Allocator) AdvanceTo(ctx context.Context, name string, floor int64) error {
	if err := checkFloor(name, floor); err != nil {
		return err
	}
	err := a.db.Update(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return a.AdvanceToTx(ctx, tx, name, floor)
	})
	if err != nil {
		return errors.Wrapf(err, "advance %s", name)
	}
	return nil
}

// AdvanceToTx is AdvanceTo inside a transaction owned by the caller, so the
// counter moves together with the write that needed it.
func (a *Allocator) AdvanceToTx(ctx context.Context, tx *sql.Tx, name string, floor int64) error {
	if err := checkFloor(name, floor); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, advanceSQL, name, floor)
	return err
}

func checkFloor(name string, floor int64) error {
	if name == "" {
		return ErrInvalidName
	}
	if floor < 1 {
		return errors.Newf("advance %s: floor must be >= 1, got %d", name, floor)
	}
	return nil
}
