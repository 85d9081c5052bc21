package web

import (
	"context"
	"sync"

	"github.com/joacominatel/pgbrowse/internal/database"
)

// fakeGateway returns canned results and records the calls it receives.
type fakeGateway struct {
	mu sync.Mutex

	overview    *database.Overview
	tables      []database.Table
	columns     []database.Column
	page        *database.Page
	result      *database.QueryResult
	exportCols  []string
	exportRows  [][]database.Value
	affected    int64
	err         error
	exportErr   error
	pingErr     error
	resetCalled int

	browseArgs   []int
	executed     []string
	insertFields []database.Field
	deleted      []string
}

var _ Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) DatabaseName() string { return "shop" }

func (f *fakeGateway) Ping(context.Context) error { return f.pingErr }

func (f *fakeGateway) Overview(context.Context) (*database.Overview, error) {
	return f.overview, f.err
}

func (f *fakeGateway) Describe(context.Context) ([]database.Table, error) {
	return f.tables, f.err
}

func (f *fakeGateway) Columns(context.Context, string) ([]database.Column, error) {
	return f.columns, f.err
}

func (f *fakeGateway) Browse(_ context.Context, table string, page, perPage int) (*database.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.browseArgs = []int{page, perPage}
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &database.Page{
		Table:      table,
		Columns:    []string{"id"},
		Pagination: database.NewPagination(page, perPage, 0),
	}, nil
}

func (f *fakeGateway) Execute(_ context.Context, query string) (*database.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, query)
	return f.result, f.err
}

func (f *fakeGateway) Export(_ context.Context, _ string, sink database.RowSink) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	if err := sink.Header(f.exportCols); err != nil {
		return err
	}
	for _, row := range f.exportRows {
		if err := sink.Row(row); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeGateway) Insert(_ context.Context, _ string, fields []database.Field) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertFields = fields
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func (f *fakeGateway) DeleteAll(_ context.Context, table string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, table)
	return f.affected, f.err
}

func (f *fakeGateway) ResetSchema(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalled++
	return f.err
}
