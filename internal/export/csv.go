// Package export encodes query results for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/joacominatel/pgbrowse/internal/database"
)

// CSV writes a header row followed by one record per row. Nulls become
// empty fields. It implements database.RowSink so rows stream straight
// from the cursor to w.
type CSV struct {
	w       *csv.Writer
	columns int
	rows    int64
}

var _ database.RowSink = (*CSV)(nil)

// NewCSV returns a CSV encoder writing to w.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// Header writes the column names.
func (c *CSV) Header(columns []string) error {
	c.columns = len(columns)
	if err := c.w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Row writes one record.
func (c *CSV) Row(values []database.Value) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = v.Text()
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	c.rows++
	return nil
}

// Flush writes any buffered data and reports the first write error.
func (c *CSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// Rows returns the number of records written, excluding the header.
func (c *CSV) Rows() int64 {
	return c.rows
}

// WriteResult encodes a materialized result in one go.
func WriteResult(w io.Writer, columns []string, rows [][]database.Value) error {
	enc := NewCSV(w)
	if err := enc.Header(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := enc.Row(row); err != nil {
			return err
		}
	}
	return enc.Flush()
}

// Filename returns the attachment name for a table export.
func Filename(table string) string {
	return table + ".csv"
}
