package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/testutil"
)

func TestService_Overview(t *testing.T) {
	conn, sess := newMocks()
	sess.On("Summary", mock.Anything).Return(&database.Summary{Size: "8192 kB", ActiveConnections: 3}, nil)
	sess.On("ListTables", mock.Anything).Return([]string{"orders", "users"}, nil)
	sess.On("RowCount", mock.Anything, "orders").Return(int64(5), nil)
	sess.On("RowCount", mock.Anything, "users").Return(int64(2), nil)
	sess.On("TableSize", mock.Anything, "orders").Return("16 kB", nil)
	sess.On("TableSize", mock.Anything, "users").Return("8192 bytes", nil)

	svc := NewService(conn, testutil.NewTestLogger(t))
	ov, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8192 kB", ov.Size)
	assert.Equal(t, int64(3), ov.ActiveConnections)
	assert.Equal(t, 2, ov.TableCount())
	assert.Equal(t, int64(7), ov.TotalRows)
	assert.Equal(t, "orders", ov.Tables[0].Name)
	assert.Equal(t, "16 kB", ov.Tables[0].Size)
	assert.Nil(t, ov.Tables[0].Columns)

	conn.AssertExpectations(t)
	sess.AssertExpectations(t)
}

func TestService_Describe(t *testing.T) {
	conn, sess := newMocks()
	cols := []database.Column{{Name: "id", DataType: "integer", IsPrimary: true, OrdinalPos: 1}}
	sess.On("ListTables", mock.Anything).Return([]string{"users"}, nil)
	sess.On("RowCount", mock.Anything, "users").Return(int64(1), nil)
	sess.On("TableSize", mock.Anything, "users").Return("8192 bytes", nil)
	sess.On("Columns", mock.Anything, "users").Return(cols, nil)

	tables, err := NewService(conn, nil).Describe(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, cols, tables[0].Columns)
	sess.AssertExpectations(t)
}

func TestService_IntrospectionFailure(t *testing.T) {
	conn, sess := newMocks()
	sess.On("ListTables", mock.Anything).Return(nil, errors.New("permission denied"))

	_, err := NewService(conn, nil).Describe(context.Background())

	var introErr *ErrIntrospection
	require.ErrorAs(t, err, &introErr)
	assert.Contains(t, err.Error(), "permission denied")
	sess.AssertExpectations(t)
}

func TestService_OpenFailure(t *testing.T) {
	conn := &mockConnector{}
	conn.On("Open", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := NewService(conn, nil).Execute(context.Background(), "SELECT 1")

	var connErr *ErrConnection
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "connection refused")
	conn.AssertExpectations(t)
}

func TestService_Browse(t *testing.T) {
	conn, sess := newMocks()
	page := &database.Page{Table: "users", Columns: []string{"id"}, Pagination: database.NewPagination(2, 10, 25)}
	sess.On("Browse", mock.Anything, "users", 2, 10).Return(page, nil)

	got, err := NewService(conn, nil).Browse(context.Background(), "users", 2, 10)
	require.NoError(t, err)
	assert.Same(t, page, got)
	sess.AssertExpectations(t)
}

func TestService_BrowseUnknownTable(t *testing.T) {
	conn, sess := newMocks()
	sess.On("Browse", mock.Anything, "ghost", 1, 10).
		Return(nil, fmt.Errorf("%w: ghost", database.ErrTableNotFound))

	_, err := NewService(conn, nil).Browse(context.Background(), "ghost", 1, 10)

	var nf *ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.Table)
	assert.ErrorIs(t, err, database.ErrTableNotFound)
	sess.AssertExpectations(t)
}

func TestService_ExecuteEmpty(t *testing.T) {
	conn, sess := newMocks()
	sess.On("Execute", mock.Anything, "  ").Return(nil, database.ErrEmptyQuery)

	_, err := NewService(conn, nil).Execute(context.Background(), "  ")

	var ve *ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "no query provided", err.Error())
}

func TestService_ExecuteFailureCarriesDetail(t *testing.T) {
	conn, sess := newMocks()
	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "42P01",
		Message:  `relation "nope" does not exist`,
		Hint:     "check the name",
	}
	sess.On("Execute", mock.Anything, "SELECT * FROM nope").Return(nil, fmt.Errorf("execute: %w", pgErr))

	_, err := NewService(conn, nil).Execute(context.Background(), "SELECT * FROM nope")

	var qe *ErrQuery
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "SELECT * FROM nope", qe.Query)

	d := Detail(err)
	require.NotNil(t, d)
	assert.Equal(t, "42P01", d.Code)
	assert.Equal(t, "check the name", d.Hint)
	sess.AssertExpectations(t)
}

func TestService_ExecuteResult(t *testing.T) {
	conn, sess := newMocks()
	res := &database.QueryResult{Kind: database.ResultMutation, RowsAffected: 4}
	sess.On("Execute", mock.Anything, "DELETE FROM t").Return(res, nil)

	got, err := NewService(conn, testutil.NewTestLogger(t)).Execute(context.Background(), "DELETE FROM t")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.RowCount())
}

func TestService_CloseErrorIgnored(t *testing.T) {
	sess := &mockSession{}
	conn := &mockConnector{}
	conn.On("Open", mock.Anything).Return(sess, nil)
	sess.On("Close", mock.Anything).Return(errors.New("already closed"))
	sess.On("ListTables", mock.Anything).Return([]string{"a"}, nil)

	names, err := NewService(conn, nil).TableNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)
	sess.AssertCalled(t, "Close", mock.Anything)
}

func TestService_ClosesAfterCancel(t *testing.T) {
	conn, sess := newMocks()
	ctx, cancel := context.WithCancel(context.Background())
	sess.On("Ping", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(context.Canceled)

	err := NewService(conn, nil).Ping(ctx)

	var connErr *ErrConnection
	require.ErrorAs(t, err, &connErr)
	sess.AssertExpectations(t)
}

func TestService_Columns(t *testing.T) {
	conn, sess := newMocks()
	sess.On("Columns", mock.Anything, "ghost").
		Return(nil, fmt.Errorf("%w: ghost", database.ErrTableNotFound))

	_, err := NewService(conn, nil).Columns(context.Background(), "ghost")

	var nf *ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestService_InsertValidation(t *testing.T) {
	tests := []struct {
		name  string
		cause error
	}{
		{"no fields", database.ErrNoFields},
		{"unknown column", fmt.Errorf("%w: nope", database.ErrUnknownColumn)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, sess := newMocks()
			fields := []database.Field{{Column: "a", Value: ""}}
			sess.On("Insert", mock.Anything, "t", fields).Return(int64(0), tt.cause)

			_, err := NewService(conn, nil).Insert(context.Background(), "t", fields)

			var ve *ErrValidation
			require.ErrorAs(t, err, &ve)
			assert.ErrorIs(t, err, tt.cause)
			sess.AssertExpectations(t)
		})
	}
}

func TestService_InsertAndDelete(t *testing.T) {
	conn, sess := newMocks()
	fields := []database.Field{{Column: "b", Value: "x"}}
	sess.On("Insert", mock.Anything, "t", fields).Return(int64(1), nil)

	svc := NewService(conn, testutil.NewTestLogger(t))
	n, err := svc.Insert(context.Background(), "t", fields)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	conn2, sess2 := newMocks()
	sess2.On("DeleteAll", mock.Anything, "t").Return(int64(9), nil)
	n, err = NewService(conn2, nil).DeleteAll(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	sess.AssertExpectations(t)
	sess2.AssertExpectations(t)
}

type sinkStub struct{}

func (sinkStub) Header([]string) error      { return nil }
func (sinkStub) Row([]database.Value) error { return nil }

func TestService_ExportAndReset(t *testing.T) {
	conn, sess := newMocks()
	sink := sinkStub{}
	sess.On("Stream", mock.Anything, "users", sink).Return(nil)
	require.NoError(t, NewService(conn, nil).Export(context.Background(), "users", sink))
	sess.AssertExpectations(t)

	conn2, sess2 := newMocks()
	sess2.On("ResetSchema", mock.Anything).Return(errors.New("boom"))
	err := NewService(conn2, nil).ResetSchema(context.Background())
	var qe *ErrQuery
	assert.ErrorAs(t, err, &qe)
	sess2.AssertExpectations(t)
}

func TestDetail_NoPgError(t *testing.T) {
	assert.Nil(t, Detail(errors.New("plain")))
	assert.Nil(t, Detail(nil))
}

func TestService_DatabaseName(t *testing.T) {
	conn := &mockConnector{}
	conn.On("DatabaseName").Return("shop")
	assert.Equal(t, "shop", NewService(conn, nil).DatabaseName())
}
