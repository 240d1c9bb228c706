package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// ErrUnknownIndex is returned when a lookup names a field that has no
// declared index.
var ErrUnknownIndex = errors.New("unknown index")

// Record pairs a decoded value with its store-assigned id.
type Record[T any] struct {
	ID    int64
	Value T
}

// Collection is a typed handle on one container.
// It is safe for concurrent use; the DB serializes the underlying transactions.
type Collection[T any] struct {
	db     *DB
	schema Schema
}

// Define creates or opens the container described by schema and returns a
// typed handle on it.
//
// Creating the table is idempotent. When the stored container version is
// lower than schema.Version (or the container is new), every declared index
// is created if missing and the stored version is advanced, in one
// transaction. A stored version higher than schema.Version is rejected with
// ErrStorageUnavailable.
func Define[T any](ctx context.Context, db *DB, schema Schema) (*Collection[T], error) {
	if err := schema.validate(); err != nil {
		return nil, errors.Wrap(err, "define container")
	}

	err := db.Update(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %q (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				doc TEXT NOT NULL CHECK (json_valid(doc))
			)`, schema.Name))
		if err != nil {
			return fmt.Errorf("create table %s: %w", schema.Name, err)
		}

		var stored int
		err = tx.QueryRowContext(ctx,
			"SELECT version FROM containers WHERE name = ?", schema.Name,
		).Scan(&stored)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read container version: %w", err)
		}

		if stored > schema.Version {
			return unavailable(
				errors.Newf("container %s has version %d, newer than %d", schema.Name, stored, schema.Version),
				"define container")
		}
		if stored == schema.Version {
			return nil
		}

		if err := upgrade(ctx, tx, schema); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO containers (name, version) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET version = excluded.version
		`, schema.Name, schema.Version)
		if err != nil {
			return fmt.Errorf("record container version: %w", err)
		}

		slog.Debug("container upgraded",
			"container", schema.Name,
			"from_version", stored,
			"to_version", schema.Version,
		)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "define container %s", schema.Name)
	}

	return &Collection[T]{db: db, schema: schema}, nil
}

// upgrade creates every declared index that does not exist yet.
func upgrade(ctx context.Context, tx *sql.Tx, schema Schema) error {
	for _, idx := range schema.Indexes {
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %q ON %q (%s)",
			unique, schema.indexName(idx.Field), schema.Name, fieldExpr(idx.Field))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index %s: %w", schema.indexName(idx.Field), err)
		}
	}
	return nil
}

// Name returns the container name.
func (c *Collection[T]) Name() string {
	return c.schema.Name
}

// Insert assigns a new id and persists value.
// Returns ErrConstraintViolation if a unique index already holds an equal
// value, and ErrInvalidRecord if value fails validation.
func (c *Collection[T]) Insert(ctx context.Context, value T) (int64, error) {
	var id int64
	err := c.db.Update(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		id, err = c.InsertTx(ctx, tx, value)
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "insert into %s", c.schema.Name)
	}
	return id, nil
}

// InsertTx is Insert inside a transaction owned by the caller, typically
// from DB.Update. The record commits or rolls back with the caller's other
// writes. Errors are classified when the enclosing Update returns.
func (c *Collection[T]) InsertTx(ctx context.Context, tx *sql.Tx, value T) (int64, error) {
	doc, err := encode(value)
	if err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %q (doc) VALUES (?)", c.schema.Name), doc)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetByIndex returns the record whose indexed field equals value.
// When a non-unique index matches several records, the one with the lowest
// id is returned. Absence is reported as found=false with a nil error.
func (c *Collection[T]) GetByIndex(ctx context.Context, field string, value any) (Record[T], bool, error) {
	if _, ok := c.schema.index(field); !ok {
		return Record[T]{}, false, errors.Wrapf(ErrUnknownIndex, "%s.%s", c.schema.Name, field)
	}

	var (
		rec   Record[T]
		found bool
	)
	err := c.db.View(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var doc string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT id, doc FROM %q WHERE %s = ? ORDER BY id ASC LIMIT 1",
				c.schema.Name, fieldExpr(field)),
			value,
		).Scan(&rec.ID, &doc)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		rec.Value, err = decode[T](doc)
		if err != nil {
			return errors.Wrapf(err, "record %d", rec.ID)
		}
		found = true
		return nil
	})
	if err != nil {
		return Record[T]{}, false, errors.Wrapf(err, "get %s by %s", c.schema.Name, field)
	}
	return rec, found, nil
}

// GetAll returns a snapshot of every record in the container.
// Results are ordered by id for stable output, but callers must not treat the
// order as meaningful.
//
// Returns an empty slice (not nil) if the container is empty.
func (c *Collection[T]) GetAll(ctx context.Context) ([]Record[T], error) {
	records := []Record[T]{}
	err := c.db.View(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			fmt.Sprintf("SELECT id, doc FROM %q ORDER BY id ASC", c.schema.Name))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec Record[T]
				doc string
			)
			if err := rows.Scan(&rec.ID, &doc); err != nil {
				return err
			}
			rec.Value, err = decode[T](doc)
			if err != nil {
				return errors.Wrapf(err, "record %d", rec.ID)
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get all %s", c.schema.Name)
	}
	return records, nil
}

// DeleteByIndex looks up the record whose indexed field equals value and
// deletes it. Returns false (not an error) if nothing matched.
func (c *Collection[T]) DeleteByIndex(ctx context.Context, field string, value any) (bool, error) {
	if _, ok := c.schema.index(field); !ok {
		return false, errors.Wrapf(ErrUnknownIndex, "%s.%s", c.schema.Name, field)
	}

	var removed bool
	err := c.db.Update(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT id FROM %q WHERE %s = ? ORDER BY id ASC LIMIT 1",
				c.schema.Name, fieldExpr(field)),
			value,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %q WHERE id = ?", c.schema.Name), id)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "delete %s by %s", c.schema.Name, field)
	}
	return removed, nil
}

// Count returns the number of records in the container.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.View(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %q", c.schema.Name)).Scan(&n)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", c.schema.Name)
	}
	return n, nil
}
