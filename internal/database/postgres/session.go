package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/joacominatel/pgbrowse/internal/database"
)

// Session implements database.Session over one pgx connection.
type Session struct {
	conn   Conn
	schema string
	logger *slog.Logger
}

func newSession(conn Conn, schema string, logger *slog.Logger) *Session {
	return &Session{conn: conn, schema: schema, logger: logger}
}

// Close closes the connection.
func (s *Session) Close(ctx context.Context) error {
	if err := s.conn.Close(ctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	s.logger.Debug("session closed")
	return nil
}

// Ping checks if the connection is alive.
func (s *Session) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// ListTables returns all base table names in the session schema.
func (s *Session) ListTables(ctx context.Context) ([]string, error) {
	return listTables(ctx, s.conn, s.schema)
}

func listTables(ctx context.Context, q Querier, schema string) ([]string, error) {
	rows, err := q.Query(ctx, queryListTables, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Columns returns column metadata for a table. An empty catalog result
// means the table does not exist.
func (s *Session) Columns(ctx context.Context, table string) ([]database.Column, error) {
	rows, err := s.conn.Query(ctx, queryGetColumns, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer rows.Close()

	var columns []database.Column
	for rows.Next() {
		var col database.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &col.OrdinalPos, &col.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsNullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", database.ErrTableNotFound, table)
	}
	return columns, nil
}

// RowCount returns the exact row count. This scans the table.
func (s *Session) RowCount(ctx context.Context, table string) (int64, error) {
	ident, err := s.tableIdent(ctx, s.conn, table)
	if err != nil {
		return 0, err
	}
	return countRows(ctx, s.conn, ident)
}

func countRows(ctx context.Context, q Querier, ident string) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, "SELECT count(*) FROM "+ident).Scan(&count); err != nil {
		return 0, fmt.Errorf("row count: %w", err)
	}
	return count, nil
}

// TableSize returns pg_size_pretty of the table's main relation.
func (s *Session) TableSize(ctx context.Context, table string) (string, error) {
	var size string
	err := s.conn.QueryRow(ctx, queryTableSize, s.qualify(table)).Scan(&size)
	if err != nil {
		return "", fmt.Errorf("table size: %w", err)
	}
	return size, nil
}

// Summary returns database size and the number of server connections.
func (s *Session) Summary(ctx context.Context) (*database.Summary, error) {
	var sum database.Summary
	if err := s.conn.QueryRow(ctx, querySummary).Scan(&sum.Size, &sum.ActiveConnections); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &sum, nil
}

// tableIdent checks table against the catalog and returns its quoted,
// schema-qualified identifier. Identifiers cannot be bound as parameters,
// so this is the only way a table name reaches SQL text.
func (s *Session) tableIdent(ctx context.Context, q Querier, table string) (string, error) {
	var exists bool
	if err := q.QueryRow(ctx, queryTableExists, s.schema, table).Scan(&exists); err != nil {
		return "", fmt.Errorf("lookup table: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", database.ErrTableNotFound, table)
	}
	return s.qualify(table), nil
}

func (s *Session) qualify(table string) string {
	return pgx.Identifier{s.schema, table}.Sanitize()
}

var _ database.Session = (*Session)(nil)
