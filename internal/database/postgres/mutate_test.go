package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func columnRows(names ...string) *fakeRows {
	rows := newRows("column_name", "data_type", "is_nullable", "column_default", "ordinal_position", "is_primary")
	for i, n := range names {
		rows.add(n, "text", "YES", nil, i+1, false)
	}
	return rows
}

func TestSession_Insert_SkipsEmptyFields(t *testing.T) {
	conn := newFakeConn(t).
		expectQuery("information_schema.columns", columnRows("a", "b")).
		expectExec(`INSERT INTO "public"."t" ("b") VALUES ($1)`, "INSERT 0 1")
	s := newTestSession(t, conn)

	n, err := s.Insert(context.Background(), "t", []database.Field{
		{Column: "a", Value: ""},
		{Column: "b", Value: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	call := conn.lastCall()
	assert.NotContains(t, call.sql, `"a"`)
	assert.Equal(t, []any{pgx.QueryExecModeSimpleProtocol, "x"}, call.args)
	assert.Equal(t, 1, conn.committed)
	conn.assertDone()
}

func TestSession_Insert_NoFields(t *testing.T) {
	conn := newFakeConn(t)
	s := newTestSession(t, conn)

	_, err := s.Insert(context.Background(), "t", []database.Field{{Column: "a", Value: ""}})
	require.ErrorIs(t, err, database.ErrNoFields)
	assert.Empty(t, conn.calls)
}

func TestSession_Insert_UnknownColumn(t *testing.T) {
	conn := newFakeConn(t).expectQuery("information_schema.columns", columnRows("a"))
	s := newTestSession(t, conn)

	_, err := s.Insert(context.Background(), "t", []database.Field{{Column: `a") VALUES (1); --`, Value: "x"}})
	require.ErrorIs(t, err, database.ErrUnknownColumn)
	assert.Equal(t, 0, conn.begun)
}

func TestSession_Insert_FailureRollsBack(t *testing.T) {
	conn := newFakeConn(t).
		expectQuery("information_schema.columns", columnRows("a")).
		expectExecError("INSERT", errors.New(`invalid input syntax for type integer: "x"`))
	s := newTestSession(t, conn)

	_, err := s.Insert(context.Background(), "t", []database.Field{{Column: "a", Value: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input syntax")
	assert.Equal(t, 1, conn.rolledBack)
	assert.Equal(t, 0, conn.committed)
}

func TestSession_DeleteAll(t *testing.T) {
	conn := newFakeConn(t).
		expectTable(true).
		expectExec(`DELETE FROM "public"."orders"`, "DELETE 3")
	s := newTestSession(t, conn)

	n, err := s.DeleteAll(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 1, conn.committed)
}

func TestSession_DeleteAll_UnknownTable(t *testing.T) {
	conn := newFakeConn(t).expectTable(false)
	s := newTestSession(t, conn)

	_, err := s.DeleteAll(context.Background(), "orders")
	require.ErrorIs(t, err, database.ErrTableNotFound)
	assert.Equal(t, 0, conn.begun)
}

func TestSession_ResetSchema(t *testing.T) {
	conn := newFakeConn(t).
		expectQuery("information_schema.tables", newRows("table_name").add("a").add("b")).
		expectExec(`DROP TABLE IF EXISTS "public"."a", "public"."b" CASCADE`, "DROP TABLE").
		expectQuery("information_schema.tables", newRows("table_name"))
	s := newTestSession(t, conn)

	require.NoError(t, s.ResetSchema(context.Background()))
	assert.Equal(t, 1, conn.committed)

	tables, err := s.ListTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
	conn.assertDone()
}

func TestSession_ResetSchema_Empty(t *testing.T) {
	conn := newFakeConn(t).expectQuery("information_schema.tables", newRows("table_name"))
	s := newTestSession(t, conn)

	require.NoError(t, s.ResetSchema(context.Background()))
	conn.assertDone()
}

func TestSession_ResetSchema_FailureRollsBack(t *testing.T) {
	conn := newFakeConn(t).
		expectQuery("information_schema.tables", newRows("table_name").add("a")).
		expectExecError("DROP TABLE", errors.New("must be owner of table a"))
	s := newTestSession(t, conn)

	err := s.ResetSchema(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, conn.rolledBack)
	assert.Equal(t, 0, conn.committed)
}
