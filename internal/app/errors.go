package app

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joacominatel/pgbrowse/internal/database"
)

// ErrConnection represents a database connection error.
type ErrConnection struct {
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrIntrospection represents a failure reading catalog metadata.
type ErrIntrospection struct {
	Cause error
}

func (e *ErrIntrospection) Error() string {
	return fmt.Sprintf("introspection error: %v", e.Cause)
}

func (e *ErrIntrospection) Unwrap() error {
	return e.Cause
}

// ErrQuery represents a query execution error.
type ErrQuery struct {
	Query string
	Cause error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *ErrQuery) Unwrap() error {
	return e.Cause
}

// ErrValidation represents input rejected before reaching the database.
type ErrValidation struct {
	Cause error
}

func (e *ErrValidation) Error() string {
	return e.Cause.Error()
}

func (e *ErrValidation) Unwrap() error {
	return e.Cause
}

// ErrNotFound represents a reference to a table that does not exist.
type ErrNotFound struct {
	Table string
	Cause error
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("table %q not found", e.Table)
}

func (e *ErrNotFound) Unwrap() error {
	return e.Cause
}

// ErrConfig represents a configuration error.
type ErrConfig struct {
	Cause error
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("config error: %v", e.Cause)
}

func (e *ErrConfig) Unwrap() error {
	return e.Cause
}

// PgDetail is the server-side diagnostic attached to a failed statement.
type PgDetail struct {
	Code     string
	Severity string
	Message  string
	Detail   string
	Hint     string
	Position int32
}

// Detail extracts the PostgreSQL diagnostic from err, or nil when err does
// not carry one.
func Detail(err error) *PgDetail {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	return &PgDetail{
		Code:     pgErr.Code,
		Severity: pgErr.Severity,
		Message:  pgErr.Message,
		Detail:   pgErr.Detail,
		Hint:     pgErr.Hint,
		Position: pgErr.Position,
	}
}

// classify maps a session error onto the application error types.
// Connection errors pass through untouched.
func classify(err error, table, query string) error {
	if err == nil {
		return nil
	}

	var connErr *ErrConnection
	if errors.As(err, &connErr) {
		return err
	}

	switch {
	case errors.Is(err, database.ErrTableNotFound):
		return &ErrNotFound{Table: table, Cause: err}
	case errors.Is(err, database.ErrEmptyQuery),
		errors.Is(err, database.ErrNoFields),
		errors.Is(err, database.ErrUnknownColumn):
		return &ErrValidation{Cause: err}
	}
	return &ErrQuery{Query: query, Cause: err}
}
