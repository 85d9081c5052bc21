package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/export"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func renderOverview(w io.Writer, ov *database.Overview) {
	_, _ = fmt.Fprintf(w, "Size: %s  Connections: %d\n", ov.Size, ov.ActiveConnections)

	if ov.TableCount() == 0 {
		_, _ = fmt.Fprintln(w, "(no tables)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows", "Size"})
	for _, tbl := range ov.Tables {
		t.AppendRow(table.Row{tbl.Name, tbl.RowCount, tbl.Size})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d tables", ov.TableCount()), ov.TotalRows, ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func renderResult(w io.Writer, r *database.QueryResult, format string) error {
	if !r.IsProjection() {
		_, err := fmt.Fprintf(w, "%d row(s) affected\n", r.RowsAffected)
		return err
	}

	switch format {
	case formatCSV:
		return export.WriteResult(w, r.Columns, r.Rows)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Records())
	case formatTable:
		renderRows(w, r.Columns, r.Rows)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, csv or json)", format)
	}
}

func renderRows(w io.Writer, columns []string, rows [][]database.Value) {
	if len(columns) == 0 {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v.String()
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}
