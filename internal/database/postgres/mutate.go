package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joacominatel/pgbrowse/internal/database"
)

// Insert adds one row from the non-empty fields. Empty fields are left
// out of the statement so the column default applies instead of "".
func (s *Session) Insert(ctx context.Context, table string, fields []database.Field) (int64, error) {
	provided := make([]database.Field, 0, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			provided = append(provided, f)
		}
	}
	if len(provided) == 0 {
		return 0, database.ErrNoFields
	}

	columns, err := s.Columns(ctx, table)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Name] = true
	}

	names := make([]string, len(provided))
	placeholders := make([]string, len(provided))
	// Simple protocol lets the server coerce untyped literals to the
	// column type, as the values arrive as form strings.
	args := []any{pgx.QueryExecModeSimpleProtocol}
	for i, f := range provided {
		if !known[f.Column] {
			return 0, fmt.Errorf("%w: %s", database.ErrUnknownColumn, f.Column)
		}
		names[i] = pgx.Identifier{f.Column}.Sanitize()
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args = append(args, f.Value)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.qualify(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	var affected int64
	err = pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// DeleteAll removes every row of a table.
func (s *Session) DeleteAll(ctx context.Context, table string) (int64, error) {
	ident, err := s.tableIdent(ctx, s.conn, table)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM "+ident)
		if err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ResetSchema drops every base table of the schema, cascading to
// dependents, in a single DROP statement inside one transaction.
func (s *Session) ResetSchema(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		tables, err := listTables(ctx, tx, s.schema)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return nil
		}

		idents := make([]string, len(tables))
		for i, t := range tables {
			idents[i] = s.qualify(t)
		}
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+strings.Join(idents, ", ")+" CASCADE"); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		s.logger.Info("schema reset", slog.String("schema", s.schema), slog.Int("tables", len(tables)))
		return nil
	})
}
