package postgres

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeRows is a scripted pgx.Rows.
type fakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	tag    pgconn.CommandTag
	err    error
	pos    int
	closed bool
}

func newRows(columns ...string) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c, DataTypeOID: pgtype.TextOID}
	}
	return &fakeRows{fields: fields}
}

func (r *fakeRows) withOID(col int, oid uint32) *fakeRows {
	r.fields[col].DataTypeOID = oid
	return r
}

func (r *fakeRows) add(values ...any) *fakeRows {
	r.data = append(r.data, values)
	return r
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return r.tag }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.err != nil || r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1])
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos-1], nil
}

// fakeRow is a scripted pgx.Row.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

func assign(dest []any, src []any) error {
	if len(dest) != len(src) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(src))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		if src[i] == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		sv := reflect.ValueOf(src[i])
		if dv.Kind() == reflect.Pointer && sv.Type().AssignableTo(dv.Type().Elem()) {
			p := reflect.New(dv.Type().Elem())
			p.Elem().Set(sv)
			dv.Set(p)
			continue
		}
		if !sv.Type().AssignableTo(dv.Type()) {
			if !sv.Type().ConvertibleTo(dv.Type()) || sv.Kind() == reflect.String || dv.Kind() == reflect.String {
				return fmt.Errorf("scan: cannot assign %T to %s", src[i], dv.Type())
			}
			sv = sv.Convert(dv.Type())
		}
		dv.Set(sv)
	}
	return nil
}

// expectation is one scripted call on fakeConn, matched in order.
type expectation struct {
	method   string
	contains string
	rows     *fakeRows
	row      fakeRow
	tag      pgconn.CommandTag
	err      error
}

type recordedCall struct {
	method string
	sql    string
	args   []any
}

// fakeConn is a scripted Conn in the spirit of go-sqlmock: calls must
// arrive in the expected order and carry the expected SQL fragment.
type fakeConn struct {
	t          *testing.T
	expected   []*expectation
	calls      []recordedCall
	begun      int
	committed  int
	rolledBack int
	closed     bool
	pingErr    error
}

func newFakeConn(t *testing.T) *fakeConn {
	return &fakeConn{t: t}
}

func (c *fakeConn) expectQuery(contains string, rows *fakeRows) *fakeConn {
	c.expected = append(c.expected, &expectation{method: "query", contains: contains, rows: rows})
	return c
}

func (c *fakeConn) expectQueryError(contains string, err error) *fakeConn {
	c.expected = append(c.expected, &expectation{method: "query", contains: contains, err: err})
	return c
}

func (c *fakeConn) expectQueryRow(contains string, values ...any) *fakeConn {
	c.expected = append(c.expected, &expectation{method: "queryrow", contains: contains, row: fakeRow{values: values}})
	return c
}

func (c *fakeConn) expectQueryRowError(contains string, err error) *fakeConn {
	c.expected = append(c.expected, &expectation{method: "queryrow", contains: contains, row: fakeRow{err: err}})
	return c
}

func (c *fakeConn) expectExec(contains string, tag string) *fakeConn {
	c.expected = append(c.expected, &expectation{method: "exec", contains: contains, tag: pgconn.NewCommandTag(tag)})
	return c
}

func (c *fakeConn) expectExecError(contains string, err error) *fakeConn {
	c.expected = append(c.expected, &expectation{method: "exec", contains: contains, err: err})
	return c
}

// expectTable scripts the catalog existence check.
func (c *fakeConn) expectTable(exists bool) *fakeConn {
	return c.expectQueryRow("SELECT EXISTS", exists)
}

func (c *fakeConn) next(method, sql string, args []any) *expectation {
	c.t.Helper()
	c.calls = append(c.calls, recordedCall{method: method, sql: sql, args: args})
	if len(c.expected) == 0 {
		c.t.Fatalf("unexpected %s: %s", method, sql)
	}
	e := c.expected[0]
	c.expected = c.expected[1:]
	if e.method != method || !strings.Contains(sql, e.contains) {
		c.t.Fatalf("expected %s containing %q, got %s: %s", e.method, e.contains, method, sql)
	}
	return e
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	e := c.next("query", sql, args)
	if e.err != nil {
		return nil, e.err
	}
	return e.rows, nil
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return c.next("queryrow", sql, args).row
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e := c.next("exec", sql, args)
	return e.tag, e.err
}

func (c *fakeConn) Begin(_ context.Context) (pgx.Tx, error) {
	c.begun++
	return &fakeTx{conn: c}, nil
}

func (c *fakeConn) Ping(_ context.Context) error { return c.pingErr }

func (c *fakeConn) Close(_ context.Context) error {
	c.closed = true
	return nil
}

// PgConn and TypeMap are nil: the raw statement path is covered by
// fakeServer instead.
func (c *fakeConn) PgConn() *pgconn.PgConn { return nil }
func (c *fakeConn) TypeMap() *pgtype.Map   { return nil }

func (c *fakeConn) lastCall() recordedCall {
	return c.calls[len(c.calls)-1]
}

func (c *fakeConn) assertDone() {
	c.t.Helper()
	if len(c.expected) > 0 {
		c.t.Errorf("%d expected calls not made, next: %s %q", len(c.expected), c.expected[0].method, c.expected[0].contains)
	}
}

// fakeTx forwards statements to its connection and records the outcome.
// The embedded interface is nil; only the methods below are used.
type fakeTx struct {
	pgx.Tx
	conn *fakeConn
	done bool
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return tx.conn.Query(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.conn.QueryRow(ctx, sql, args...)
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.conn.Exec(ctx, sql, args...)
}

func (tx *fakeTx) Commit(_ context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	tx.conn.committed++
	return nil
}

func (tx *fakeTx) Rollback(_ context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	tx.conn.rolledBack++
	return nil
}
