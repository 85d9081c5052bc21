package database

import (
	"context"
	"errors"
)

// Errors returned by sessions for conditions the caller must tell apart
// from engine failures.
var (
	ErrTableNotFound = errors.New("table not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNoFields      = errors.New("no data provided for insertion")
	ErrEmptyQuery    = errors.New("no query provided")
)

// Connector opens short-lived sessions against the configured database.
// There is no pool: every Open dials a fresh connection.
type Connector interface {
	// Open makes a single connection attempt.
	Open(ctx context.Context) (Session, error)

	// DatabaseName returns the name of the target database.
	DatabaseName() string
}

// Session is one connection used for exactly one logical operation.
// Callers must Close it exactly once, on every exit path.
type Session interface {
	// Close releases the underlying connection.
	Close(ctx context.Context) error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// ListTables returns user table names in alphabetical order.
	ListTables(ctx context.Context) ([]string, error)

	// Columns returns column metadata ordered by ordinal position.
	Columns(ctx context.Context, table string) ([]Column, error)

	// RowCount returns the live row count of a table.
	RowCount(ctx context.Context, table string) (int64, error)

	// TableSize returns the human-readable on-disk size of a table.
	TableSize(ctx context.Context, table string) (string, error)

	// Summary returns database size and active connection count.
	Summary(ctx context.Context) (*Summary, error)

	// Browse returns one page of a table.
	Browse(ctx context.Context, table string, page, perPage int) (*Page, error)

	// Execute runs an operator-supplied statement verbatim.
	Execute(ctx context.Context, query string) (*QueryResult, error)

	// Stream feeds every row of a table to sink.
	Stream(ctx context.Context, table string, sink RowSink) error

	// Insert adds one row built from the non-empty fields.
	Insert(ctx context.Context, table string, fields []Field) (int64, error)

	// DeleteAll removes every row of a table.
	DeleteAll(ctx context.Context, table string) (int64, error)

	// ResetSchema drops every user table in the schema.
	ResetSchema(ctx context.Context) error
}
