// Package recordstore provides SQLite-backed durable storage for typed records.
//
// A DB holds any number of named containers. Each container stores one record
// type as a JSON document keyed by an autoincrement id, with:
//   - Primary key: id INTEGER PRIMARY KEY AUTOINCREMENT (never reused)
//   - Secondary indexes: JSON expression indexes on top-level document fields
//   - At most one unique secondary index per container
//
// # Critical Patterns
//
// Atomic operations
//   - Every operation runs in its own transaction
//   - Writes are detached from caller cancellation: once issued they commit or fail
//
// Single writer
//   - The pool holds one connection, so the backend serializes all operations
//   - Transactions begin IMMEDIATE to take the write lock up front
//
// Typed boundary
//   - Documents are validated on encode and on decode; callers never see raw JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Errors
//
// Failures carry one of the marks ErrStorageUnavailable, ErrConstraintViolation,
// ErrInvalidRecord or ErrBackendIO. Test with errors.Is.
package recordstore
