package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joacominatel/pgbrowse/internal/database"
)

// Service coordinates application-level operations between the front ends
// and the database. Every call opens its own session and closes it before
// returning.
type Service struct {
	connector database.Connector
	logger    *slog.Logger
}

// NewService creates a new application service.
func NewService(connector database.Connector, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{connector: connector, logger: logger}
}

// withSession runs fn on a fresh session and always closes it.
func (s *Service) withSession(ctx context.Context, fn func(database.Session) error) error {
	sess, err := s.connector.Open(ctx)
	if err != nil {
		return &ErrConnection{Cause: err}
	}
	defer func() {
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			s.logger.Debug("close session", "error", err)
		}
	}()
	return fn(sess)
}

// DatabaseName returns the target database name.
func (s *Service) DatabaseName() string {
	return s.connector.DatabaseName()
}

// Ping opens a session and checks it answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.withSession(ctx, func(sess database.Session) error {
		if err := sess.Ping(ctx); err != nil {
			return &ErrConnection{Cause: err}
		}
		return nil
	})
}

// Overview gathers the database summary and per-table counts and sizes.
func (s *Service) Overview(ctx context.Context) (*database.Overview, error) {
	var ov database.Overview
	err := s.withSession(ctx, func(sess database.Session) error {
		summary, err := sess.Summary(ctx)
		if err != nil {
			return &ErrIntrospection{Cause: err}
		}
		ov.Summary = *summary

		tables, err := describeTables(ctx, sess, false)
		if err != nil {
			return err
		}
		ov.Tables = tables
		for _, t := range tables {
			ov.TotalRows += t.RowCount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// Describe returns every table with its row count, size and columns.
func (s *Service) Describe(ctx context.Context) ([]database.Table, error) {
	var tables []database.Table
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		tables, err = describeTables(ctx, sess, true)
		return err
	})
	return tables, err
}

func describeTables(ctx context.Context, sess database.Session, withColumns bool) ([]database.Table, error) {
	names, err := sess.ListTables(ctx)
	if err != nil {
		return nil, &ErrIntrospection{Cause: err}
	}

	tables := make([]database.Table, 0, len(names))
	for _, name := range names {
		t := database.Table{Name: name}
		if t.RowCount, err = sess.RowCount(ctx, name); err != nil {
			return nil, &ErrIntrospection{Cause: err}
		}
		if t.Size, err = sess.TableSize(ctx, name); err != nil {
			return nil, &ErrIntrospection{Cause: err}
		}
		if withColumns {
			if t.Columns, err = sess.Columns(ctx, name); err != nil {
				return nil, &ErrIntrospection{Cause: err}
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// TableNames returns the user tables in alphabetical order.
func (s *Service) TableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		if names, err = sess.ListTables(ctx); err != nil {
			return &ErrIntrospection{Cause: err}
		}
		return nil
	})
	return names, err
}

// Columns returns column metadata for one table.
func (s *Service) Columns(ctx context.Context, table string) ([]database.Column, error) {
	var cols []database.Column
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		cols, err = sess.Columns(ctx, table)
		if errors.Is(err, database.ErrTableNotFound) {
			return &ErrNotFound{Table: table, Cause: err}
		}
		if err != nil {
			return &ErrIntrospection{Cause: err}
		}
		return nil
	})
	return cols, err
}

// Browse returns one page of a table.
func (s *Service) Browse(ctx context.Context, table string, page, perPage int) (*database.Page, error) {
	var result *database.Page
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		result, err = sess.Browse(ctx, table, page, perPage)
		return classify(err, table, "SELECT * FROM "+table)
	})
	return result, err
}

// Execute runs an operator-supplied statement.
func (s *Service) Execute(ctx context.Context, query string) (*database.QueryResult, error) {
	var result *database.QueryResult
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		result, err = sess.Execute(ctx, query)
		return classify(err, "", query)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("statement executed",
		"kind", result.Kind.String(),
		"rows", result.RowCount(),
		"duration", result.Duration,
	)
	return result, nil
}

// Export streams every row of a table to sink.
func (s *Service) Export(ctx context.Context, table string, sink database.RowSink) error {
	return s.withSession(ctx, func(sess database.Session) error {
		return classify(sess.Stream(ctx, table, sink), table, "SELECT * FROM "+table)
	})
}

// Insert adds one row to a table. Empty fields are left to column defaults.
func (s *Service) Insert(ctx context.Context, table string, fields []database.Field) (int64, error) {
	var n int64
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		n, err = sess.Insert(ctx, table, fields)
		return classify(err, table, "INSERT INTO "+table)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("row inserted", "table", table)
	return n, nil
}

// DeleteAll removes every row of a table.
func (s *Service) DeleteAll(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.withSession(ctx, func(sess database.Session) error {
		var err error
		n, err = sess.DeleteAll(ctx, table)
		return classify(err, table, "DELETE FROM "+table)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("table emptied", "table", table, "rows", n)
	return n, nil
}

// ResetSchema drops every user table.
func (s *Service) ResetSchema(ctx context.Context) error {
	return s.withSession(ctx, func(sess database.Session) error {
		return classify(sess.ResetSchema(ctx), "", "DROP TABLE")
	})
}
