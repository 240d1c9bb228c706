package recordstore

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/cockroachdb/errors"
)

// identPattern restricts container and field names to plain SQL identifiers,
// so they can be quoted into DDL without escaping.
var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reservedNames are the bookkeeping tables created by the schema.
var reservedNames = []string{"containers", "counters", "sqlite_sequence"}

// Index declares a secondary index on a top-level document field.
type Index struct {
	// Field is the JSON field name the index covers. It doubles as the index
	// name passed to GetByIndex and DeleteByIndex.
	Field string

	// Unique rejects inserts whose field value equals an existing record's.
	Unique bool
}

// Schema declares a named container.
type Schema struct {
	// Name of the container (and of its backing table).
	Name string

	// Version of the container layout. Raising it creates any missing
	// indexes the next time the container is defined.
	Version int

	// Indexes lists the secondary indexes. At most one may be unique.
	Indexes []Index
}

// validate checks names, version and the single-unique-index rule.
func (s Schema) validate() error {
	if !identPattern.MatchString(s.Name) {
		return errors.Newf("invalid container name %q", s.Name)
	}
	if slices.Contains(reservedNames, s.Name) {
		return errors.Newf("container name %q is reserved", s.Name)
	}
	if s.Version < 1 {
		return errors.Newf("container %s: version must be >= 1, got %d", s.Name, s.Version)
	}

	seen := make(map[string]bool, len(s.Indexes))
	unique := 0
	for _, idx := range s.Indexes {
		if !identPattern.MatchString(idx.Field) {
			return errors.Newf("container %s: invalid index field %q", s.Name, idx.Field)
		}
		if seen[idx.Field] {
			return errors.Newf("container %s: duplicate index on %q", s.Name, idx.Field)
		}
		seen[idx.Field] = true
		if idx.Unique {
			unique++
		}
	}
	if unique > 1 {
		return errors.Newf("container %s: at most one unique index allowed, got %d", s.Name, unique)
	}
	return nil
}

// index returns the declared index on field.
func (s Schema) index(field string) (Index, bool) {
	for _, idx := range s.Indexes {
		if idx.Field == field {
			return idx, true
		}
	}
	return Index{}, false
}

// indexName returns the SQLite name of the index on field.
func (s Schema) indexName(field string) string {
	return fmt.Sprintf("idx_%s_%s", s.Name, field)
}

// fieldExpr is the JSON expression an index is built on. Queries must use
// the identical expression for SQLite to pick the index.
func fieldExpr(field string) string {
	return fmt.Sprintf("json_extract(doc, '$.%s')", field)
}
