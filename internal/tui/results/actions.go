package results

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackc/pgx/v5"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/export"
	"github.com/joacominatel/pgbrowse/internal/tui/statusbar"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func notify(level statusbar.Level, msg string) tea.Cmd {
	return func() tea.Msg { return StatusNotifyMsg{Level: level, Message: msg} }
}

func (m Model) currentRow() ([]database.Value, bool) {
	if m.cursorY < 0 || m.cursorY >= len(m.rows) {
		return nil, false
	}
	return m.rows[m.cursorY], true
}

func (m Model) currentCell() (string, database.Value, bool) {
	row, ok := m.currentRow()
	if !ok || m.cursorX < 0 || m.cursorX >= len(m.columns) || m.cursorX >= len(row) {
		return "", database.Value{}, false
	}
	return m.columns[m.cursorX], row[m.cursorX], true
}

func copyText(text, done string) tea.Cmd {
	if err := writeClipboard(text); err != nil {
		return notify(statusbar.LevelError, "Copy failed: "+err.Error())
	}
	return notify(statusbar.LevelSuccess, done)
}

func (m Model) copyCell() tea.Cmd {
	_, v, ok := m.currentCell()
	if !ok {
		return notify(statusbar.LevelWarning, "Nothing to copy")
	}
	return copyText(v.Text(), "Copied: "+truncateStatus(v.String(), 40))
}

func (m Model) copyRowJSON() tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return notify(statusbar.LevelWarning, "No row to copy")
	}
	b, err := json.Marshal(database.Record{Columns: m.columns, Values: row})
	if err != nil {
		return notify(statusbar.LevelError, "Copy failed: "+err.Error())
	}
	return copyText(string(b), "Copied row as JSON")
}

func (m Model) copyRowCSV() tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return notify(statusbar.LevelWarning, "No row to copy")
	}
	var b strings.Builder
	if err := export.WriteResult(&b, m.columns, [][]database.Value{row}); err != nil {
		return notify(statusbar.LevelError, "Copy failed: "+err.Error())
	}
	return copyText(b.String(), "Copied row as CSV")
}

func (m Model) copyRowText() tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return notify(statusbar.LevelWarning, "No row to copy")
	}
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = v.String()
	}
	return copyText(strings.Join(cells, "\t"), "Copied row as text")
}

// filterByValue writes a SELECT matching the selected cell into the editor.
func (m Model) filterByValue() tea.Cmd {
	col, v, ok := m.currentCell()
	if !ok {
		return notify(statusbar.LevelWarning, "Cannot filter: no cell selected")
	}
	if m.Table() == "" {
		return notify(statusbar.LevelWarning, "Cannot filter: unknown table")
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s",
		m.tableIdent(), condition(col, v))
	return func() tea.Msg { return SetEditorQueryMsg{Query: query} }
}

// generateDelete writes a DELETE matching the selected row into the
// editor. It is never executed directly.
func (m Model) generateDelete() tea.Cmd {
	row, ok := m.currentRow()
	if !ok {
		return notify(statusbar.LevelWarning, "No row selected")
	}
	if m.Table() == "" {
		return notify(statusbar.LevelWarning, "Cannot generate DELETE: unknown table")
	}

	conditions := make([]string, 0, len(m.columns))
	for i, col := range m.columns {
		if i >= len(row) {
			break
		}
		conditions = append(conditions, condition(col, row[i]))
	}

	query := fmt.Sprintf("-- review before executing\nDELETE FROM %s WHERE %s",
		m.tableIdent(), strings.Join(conditions, " AND "))
	return func() tea.Msg { return SetEditorQueryMsg{Query: query} }
}

// tableIdent quotes the current table. Browsed tables come from the
// catalog and are quoted whole; names taken from a query may carry a
// schema prefix.
func (m Model) tableIdent() string {
	if m.table != "" {
		return pgx.Identifier{m.table}.Sanitize()
	}
	return pgx.Identifier(strings.Split(m.Table(), ".")).Sanitize()
}

// condition renders a WHERE term matching v in column col.
func condition(col string, v database.Value) string {
	ident := pgx.Identifier{col}.Sanitize()
	if v.IsNull() {
		return ident + " IS NULL"
	}
	return ident + " = " + literal(v)
}

// literal renders v as a SQL literal. Numbers and booleans are emitted
// bare, everything else as a quoted string the server casts on compare.
func literal(v database.Value) string {
	switch v.Kind() {
	case database.KindBool, database.KindInt, database.KindFloat:
		return v.Text()
	default:
		return "'" + strings.ReplaceAll(v.Text(), "'", "''") + "'"
	}
}

func (m Model) exportName(ext string) string {
	base := "pgbrowse"
	if t := m.Table(); t != "" {
		base = t
	}
	return fmt.Sprintf("%s_%s.%s", base, time.Now().Format("20060102_150405"), ext)
}

func (m Model) exportCSVCmd() tea.Cmd {
	if m.columns == nil {
		return notify(statusbar.LevelWarning, "Nothing to export")
	}
	columns, rows := m.columns, m.rows
	filename := m.exportName("csv")
	return func() tea.Msg {
		f, err := os.Create(filename)
		if err != nil {
			return StatusNotifyMsg{Level: statusbar.LevelError, Message: "Export failed: " + err.Error()}
		}
		defer f.Close()

		if err := export.WriteResult(f, columns, rows); err != nil {
			return StatusNotifyMsg{Level: statusbar.LevelError, Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{
			Level:   statusbar.LevelSuccess,
			Message: fmt.Sprintf("Exported %d rows to %s", len(rows), filename),
		}
	}
}

func (m Model) exportJSONCmd() tea.Cmd {
	if m.columns == nil {
		return notify(statusbar.LevelWarning, "Nothing to export")
	}
	records := make([]database.Record, len(m.rows))
	for i, row := range m.rows {
		records[i] = database.Record{Columns: m.columns, Values: row}
	}
	filename := m.exportName("json")
	return func() tea.Msg {
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return StatusNotifyMsg{Level: statusbar.LevelError, Message: "Export failed: " + err.Error()}
		}
		if err := os.WriteFile(filename, b, 0o644); err != nil {
			return StatusNotifyMsg{Level: statusbar.LevelError, Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{
			Level:   statusbar.LevelSuccess,
			Message: fmt.Sprintf("Exported %d rows to %s", len(records), filename),
		}
	}
}

// tableFromQuery guesses the target table of a simple statement.
func tableFromQuery(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				name := strings.Trim(tokens[i+1], ";,()")
				if name != "" && !strings.HasPrefix(name, "(") {
					return strings.Trim(name, `"`)
				}
			}
		}
	}
	return ""
}

func truncateStatus(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
