package recordstore

import (
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrStorageUnavailable marks failures to open or use the backend at all
	// (missing directory, permissions, corruption, unsupported schema).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConstraintViolation marks inserts rejected by a unique index.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidRecord marks documents that fail validation on encode or decode.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrBackendIO marks any other low-level failure.
	ErrBackendIO = errors.New("backend i/o failure")
)

// classify wraps a backend error with op and marks it with its error kind.
// Errors that already carry a kind are only wrapped.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.IsAny(err, ErrStorageUnavailable, ErrConstraintViolation, ErrInvalidRecord, ErrBackendIO) {
		return errors.Wrap(err, op)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return errors.Mark(errors.Wrap(err, op), ErrConstraintViolation)
			}
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt,
			sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrFull:
			return errors.Mark(errors.Wrap(err, op), ErrStorageUnavailable)
		}
	}

	return errors.Mark(errors.Wrap(err, op), ErrBackendIO)
}

// unavailable marks err as ErrStorageUnavailable.
func unavailable(err error, op string) error {
	return errors.Mark(errors.Wrap(err, op), ErrStorageUnavailable)
}
