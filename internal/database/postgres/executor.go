package postgres

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/pgbrowse/internal/database"
)

// Browse returns one window of a table.
//
// The column list comes from a LIMIT 1 query so it matches exactly what
// the window query projects. Count and window run as separate statements
// without a shared snapshot; read skew between them is accepted.
func (s *Session) Browse(ctx context.Context, table string, page, perPage int) (*database.Page, error) {
	ident, err := s.tableIdent(ctx, s.conn, table)
	if err != nil {
		return nil, err
	}

	columns, err := s.windowColumns(ctx, ident)
	if err != nil {
		return nil, err
	}

	total, err := countRows(ctx, s.conn, ident)
	if err != nil {
		return nil, err
	}
	pg := database.NewPagination(page, perPage, total)

	// LIMIT NULL is LIMIT ALL.
	var limit any
	if pg.Bounded() {
		limit = pg.PerPage
	}

	rows, err := s.conn.Query(ctx, "SELECT * FROM "+ident+" LIMIT $1 OFFSET $2", limit, pg.Offset)
	if err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}
	_, data, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("browse: %w", err)
	}

	return &database.Page{
		Table:      table,
		Columns:    columns,
		Rows:       data,
		Pagination: pg,
	}, nil
}

func (s *Session) windowColumns(ctx context.Context, ident string) ([]string, error) {
	rows, err := s.conn.Query(ctx, "SELECT * FROM "+ident+" LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	columns := fieldNames(rows)
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return columns, nil
}

// Execute runs query verbatim inside one transaction.
//
// The text goes to the server as a single simple-protocol Query message
// with no client-side rewriting, so dollar-quoted bodies and PREPARE
// placeholders reach PostgreSQL untouched. There is no parameterization
// or sanitizing on this path: the tool exists to run arbitrary
// statements for a trusted operator. The result kind comes from the
// server's row description, not from the SQL text, so CTEs and
// comment-prefixed queries are classified correctly. Multi-statement
// text reports the last statement's result. Success commits; failure
// rolls back.
func (s *Session) Execute(ctx context.Context, query string) (*database.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, database.ErrEmptyQuery
	}

	start := time.Now()
	var result *database.QueryResult

	err := pgx.BeginFunc(ctx, s.conn, func(pgx.Tx) error {
		// The transaction lives on s.conn, so its wire connection is ours.
		res, err := execVerbatim(ctx, s.conn.PgConn(), s.conn.TypeMap(), query)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		result = res
		return nil
	})
	if err != nil {
		s.logger.Warn("statement failed", slog.Any("error", err))
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

// execVerbatim sends query as-is and keeps the last result it produces.
// The reader is always drained so the connection stays usable for the
// rollback that follows a failure.
func execVerbatim(ctx context.Context, conn *pgconn.PgConn, types *pgtype.Map, query string) (*database.QueryResult, error) {
	mrr := conn.Exec(ctx, query)

	result := &database.QueryResult{Kind: database.ResultMutation}
	var firstErr error
	for mrr.NextResult() {
		res, err := readResult(mrr.ResultReader(), types)
		if err != nil {
			firstErr = err
			break
		}
		result = res
	}

	if err := mrr.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func readResult(rr *pgconn.ResultReader, types *pgtype.Map) (*database.QueryResult, error) {
	// The reader reuses its description buffer for the next result.
	fields := slices.Clone(rr.FieldDescriptions())

	data := [][]database.Value{}
	for rr.NextRow() {
		values, err := decodeRow(types, fields, rr.Values())
		if err != nil {
			_, _ = rr.Close()
			return nil, err
		}
		data = append(data, normalizeRow(values, fields))
	}

	tag, err := rr.Close()
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return &database.QueryResult{
			Kind:         database.ResultMutation,
			RowsAffected: tag.RowsAffected(),
		}, nil
	}

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return &database.QueryResult{
		Kind:    database.ResultProjection,
		Columns: columns,
		Rows:    data,
	}, nil
}

// decodeRow turns raw column bytes into Go values the way pgx.Rows.Values
// does, so normalizeRow sees the same input on every path.
func decodeRow(types *pgtype.Map, fields []pgconn.FieldDescription, raw [][]byte) ([]any, error) {
	values := make([]any, len(fields))
	for i, fd := range fields {
		buf := raw[i]
		if buf == nil {
			continue
		}

		dt, ok := types.TypeForOID(fd.DataTypeOID)
		if !ok {
			if fd.Format == pgtype.BinaryFormatCode {
				values[i] = bytes.Clone(buf)
			} else {
				values[i] = string(buf)
			}
			continue
		}

		v, err := dt.Codec.DecodeValue(types, fd.DataTypeOID, fd.Format, buf)
		if err != nil {
			return nil, fmt.Errorf("decode column %q: %w", fd.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

// Stream feeds the full table to sink without pagination.
func (s *Session) Stream(ctx context.Context, table string, sink database.RowSink) error {
	ident, err := s.tableIdent(ctx, s.conn, table)
	if err != nil {
		return err
	}

	rows, err := s.conn.Query(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if err := sink.Header(fieldNames(rows)); err != nil {
		return fmt.Errorf("stream header: %w", err)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if err := sink.Row(normalizeRow(values, fields)); err != nil {
			return fmt.Errorf("stream row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return nil
}

// collect drains rows into normalized values and closes them.
func collect(rows pgx.Rows) ([]string, [][]database.Value, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := fieldNames(rows)

	data := [][]database.Value{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		data = append(data, normalizeRow(values, fields))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, data, nil
}

func fieldNames(rows pgx.Rows) []string {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
