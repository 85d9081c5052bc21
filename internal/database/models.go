package database

import (
	"encoding/json"
	"time"
)

// Column represents a table column with its metadata.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
	IsPrimary  bool
	Default    *string
	OrdinalPos int
}

// DefaultString returns the column default, or "" when there is none.
func (c Column) DefaultString() string {
	if c.Default == nil {
		return ""
	}
	return *c.Default
}

// Table describes one user table as seen by the catalog.
type Table struct {
	Name     string
	RowCount int64
	Size     string
	Columns  []Column
}

// Summary holds database-wide statistics.
type Summary struct {
	Size              string
	ActiveConnections int64
}

// Overview is the landing page model: summary plus per-table counts.
type Overview struct {
	Summary
	Tables    []Table
	TotalRows int64
}

// TableCount returns the number of user tables.
func (o *Overview) TableCount() int {
	return len(o.Tables)
}

// Field is a single column/value pair supplied for an insert.
type Field struct {
	Column string
	Value  string
}

// ResultKind tells projections apart from mutations.
type ResultKind int

const (
	ResultProjection ResultKind = iota
	ResultMutation
)

func (k ResultKind) String() string {
	switch k {
	case ResultProjection:
		return "projection"
	case ResultMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// QueryResult holds the result of a SQL statement.
// Projections carry Columns and Rows; mutations only RowsAffected.
type QueryResult struct {
	Kind         ResultKind
	Columns      []string
	Rows         [][]Value
	RowsAffected int64
	Duration     time.Duration
}

// IsProjection reports whether the statement returned a result description.
func (r *QueryResult) IsProjection() bool {
	return r.Kind == ResultProjection
}

// RowCount is the number of returned rows for projections and the
// number of affected rows for mutations.
func (r *QueryResult) RowCount() int64 {
	if r.Kind == ResultProjection {
		return int64(len(r.Rows))
	}
	return r.RowsAffected
}

// Records pairs every row with the column names.
func (r *QueryResult) Records() []Record {
	return toRecords(r.Columns, r.Rows)
}

// Page is one browse window over a table.
type Page struct {
	Table      string
	Columns    []string
	Rows       [][]Value
	Pagination Pagination
}

// Records pairs every row with the column names.
func (p *Page) Records() []Record {
	return toRecords(p.Columns, p.Rows)
}

// Record is a row that marshals as a JSON object keyed by column name.
type Record struct {
	Columns []string
	Values  []Value
}

// MarshalJSON keeps column order, unlike marshaling a map.
func (r Record) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, col := range r.Columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')

		v := NullValue()
		if i < len(r.Values) {
			v = r.Values[i]
		}
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}

func toRecords(columns []string, rows [][]Value) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{Columns: columns, Values: row}
	}
	return records
}

// RowSink consumes a projection one row at a time.
type RowSink interface {
	Header(columns []string) error
	Row(values []Value) error
}
