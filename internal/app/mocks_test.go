package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joacominatel/pgbrowse/internal/database"
)

type mockConnector struct {
	mock.Mock
}

func (m *mockConnector) Open(ctx context.Context) (database.Session, error) {
	args := m.Called(ctx)
	sess, _ := args.Get(0).(database.Session)
	return sess, args.Error(1)
}

func (m *mockConnector) DatabaseName() string {
	return m.Called().String(0)
}

type mockSession struct {
	mock.Mock
}

func (m *mockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSession) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSession) ListTables(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *mockSession) Columns(ctx context.Context, table string) ([]database.Column, error) {
	args := m.Called(ctx, table)
	cols, _ := args.Get(0).([]database.Column)
	return cols, args.Error(1)
}

func (m *mockSession) RowCount(ctx context.Context, table string) (int64, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSession) TableSize(ctx context.Context, table string) (string, error) {
	args := m.Called(ctx, table)
	return args.String(0), args.Error(1)
}

func (m *mockSession) Summary(ctx context.Context) (*database.Summary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*database.Summary)
	return s, args.Error(1)
}

func (m *mockSession) Browse(ctx context.Context, table string, page, perPage int) (*database.Page, error) {
	args := m.Called(ctx, table, page, perPage)
	p, _ := args.Get(0).(*database.Page)
	return p, args.Error(1)
}

func (m *mockSession) Execute(ctx context.Context, query string) (*database.QueryResult, error) {
	args := m.Called(ctx, query)
	r, _ := args.Get(0).(*database.QueryResult)
	return r, args.Error(1)
}

func (m *mockSession) Stream(ctx context.Context, table string, sink database.RowSink) error {
	return m.Called(ctx, table, sink).Error(0)
}

func (m *mockSession) Insert(ctx context.Context, table string, fields []database.Field) (int64, error) {
	args := m.Called(ctx, table, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSession) DeleteAll(ctx context.Context, table string) (int64, error) {
	args := m.Called(ctx, table)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSession) ResetSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// newMocks returns a connector that hands out sess once and expects it closed.
func newMocks() (*mockConnector, *mockSession) {
	sess := &mockSession{}
	conn := &mockConnector{}
	conn.On("Open", mock.Anything).Return(sess, nil).Once()
	sess.On("Close", mock.Anything).Return(nil).Once()
	return conn, sess
}
