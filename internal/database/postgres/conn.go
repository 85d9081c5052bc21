package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joacominatel/pgbrowse/internal/database"
)

// Querier is the subset of pgx connection and transaction behaviour the
// gateway uses. Both *pgx.Conn and pgx.Tx satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Conn is a single live connection. *pgx.Conn satisfies it.
type Conn interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// PgConn and TypeMap back the raw statement path, which bypasses
	// pgx's argument handling entirely.
	PgConn() *pgconn.PgConn
	TypeMap() *pgtype.Map
}

// DialFunc opens one connection.
type DialFunc func(ctx context.Context, cfg *pgx.ConnConfig) (Conn, error)

func dialPgx(ctx context.Context, cfg *pgx.ConnConfig) (Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Options configures a Connector.
type Options struct {
	DSN              string
	Schema           string
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	Logger           *slog.Logger

	// Dial replaces pgx.ConnectConfig, mainly for tests.
	Dial DialFunc
}

// Connector implements database.Connector for PostgreSQL. It holds only
// immutable configuration; every Open dials a new connection.
type Connector struct {
	cfg    *pgx.ConnConfig
	schema string
	logger *slog.Logger
	dial   DialFunc
}

// NewConnector parses the DSN and applies timeouts. It does not connect.
func NewConnector(opts Options) (*Connector, error) {
	cfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if opts.ConnectTimeout > 0 {
		cfg.ConnectTimeout = opts.ConnectTimeout
	}
	if opts.StatementTimeout > 0 {
		cfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = "pgbrowse"
	}

	schema := opts.Schema
	if schema == "" {
		schema = "public"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dial := opts.Dial
	if dial == nil {
		dial = dialPgx
	}

	return &Connector{
		cfg:    cfg,
		schema: schema,
		logger: logger,
		dial:   dial,
	}, nil
}

// Open makes a single connection attempt. No retries.
func (c *Connector) Open(ctx context.Context) (database.Session, error) {
	conn, err := c.dial(ctx, c.cfg.Copy())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	c.logger.Debug("session opened",
		slog.String("host", c.cfg.Host),
		slog.String("database", c.cfg.Database))
	return newSession(conn, c.schema, c.logger), nil
}

// DatabaseName returns the name of the target database.
func (c *Connector) DatabaseName() string {
	return c.cfg.Database
}

// Schema returns the schema sessions operate on.
func (c *Connector) Schema() string {
	return c.schema
}

var _ database.Connector = (*Connector)(nil)
