package results

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/tui/theme"
)

const maxColumnWidth = 40

// Model is the results grid. It shows either the result of an ad-hoc
// statement or one page of a browsed table.
type Model struct {
	columns  []string
	rows     [][]database.Value
	query    string
	table    string               // set when browsing
	page     *database.Pagination // set when browsing
	affected int64
	mutation bool
	duration time.Duration
	err      error

	width     int
	height    int
	focused   bool
	loading   bool
	cursorX   int
	cursorY   int
	offsetY   int
	colWidths []int
}

// New creates a new results model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetResult shows the outcome of query.
func (m *Model) SetResult(query string, r *database.QueryResult) {
	m.reset()
	m.query = query
	m.duration = r.Duration
	if r.IsProjection() {
		m.columns = r.Columns
		m.rows = r.Rows
	} else {
		m.mutation = true
		m.affected = r.RowsAffected
	}
	m.calculateColumnWidths()
}

// SetPage shows one page of a browsed table.
func (m *Model) SetPage(p *database.Page) {
	m.reset()
	m.table = p.Table
	pagination := p.Pagination
	m.page = &pagination
	m.columns = p.Columns
	m.rows = p.Rows
	m.calculateColumnWidths()
}

// SetError shows err in place of a result.
func (m *Model) SetError(err error) {
	m.reset()
	m.err = err
}

// Table returns the table the current rows belong to, if known.
func (m Model) Table() string {
	if m.table != "" {
		return m.table
	}
	return tableFromQuery(m.query)
}

// Rows returns the number of rows on display.
func (m Model) Rows() int {
	return len(m.rows)
}

func (m *Model) reset() {
	m.columns = nil
	m.rows = nil
	m.query = ""
	m.table = ""
	m.page = nil
	m.affected = 0
	m.mutation = false
	m.duration = 0
	m.err = nil
	m.loading = false
	m.cursorX = 0
	m.cursorY = 0
	m.offsetY = 0
	m.colWidths = nil
}

func (m *Model) calculateColumnWidths() {
	if len(m.columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.columns))
	for i, col := range m.columns {
		m.colWidths[i] = lipgloss.Width(col)
	}
	for _, row := range m.rows {
		for i, v := range row {
			if i >= len(m.colWidths) {
				break
			}
			if w := lipgloss.Width(cellText(v)); w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = min(max(m.colWidths[i], 1), maxColumnWidth)
	}
}

func (m Model) visibleRows() int {
	return max(1, m.height-5)
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.moveY(-1)
	case "down", "j":
		m.moveY(1)
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < len(m.columns)-1 {
			m.cursorX++
		}
	case "pgup":
		m.moveY(-m.visibleRows())
	case "pgdown":
		m.moveY(m.visibleRows())
	case "g", "home":
		m.moveY(-len(m.rows))
	case "G", "end":
		m.moveY(len(m.rows))
	case "n":
		return m, m.pageCmd(true)
	case "p":
		return m, m.pageCmd(false)
	case "c":
		return m, m.copyCell()
	case "y":
		return m, m.copyRowJSON()
	case "Y":
		return m, m.copyRowCSV()
	case "t":
		return m, m.copyRowText()
	case "f":
		return m, m.filterByValue()
	case "d":
		return m, m.generateDelete()
	case "e":
		return m, m.exportCSVCmd()
	case "E":
		return m, m.exportJSONCmd()
	}
	return m, nil
}

func (m *Model) moveY(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursorY = min(max(m.cursorY+delta, 0), len(m.rows)-1)

	visible := m.visibleRows()
	if m.cursorY < m.offsetY {
		m.offsetY = m.cursorY
	}
	if m.cursorY >= m.offsetY+visible {
		m.offsetY = m.cursorY - visible + 1
	}
}

func (m Model) pageCmd(next bool) tea.Cmd {
	if m.page == nil {
		return nil
	}
	var target int
	switch {
	case next && m.page.HasNext():
		target = m.page.NextPage()
	case !next && m.page.HasPrev():
		target = m.page.PrevPage()
	default:
		return nil
	}
	table := m.table
	return func() tea.Msg { return PageRequestMsg{Table: table, Page: target} }
}

// View renders the results pane.
func (m Model) View() string {
	title := theme.StyleTitle.Render("Results")

	switch {
	case m.loading:
		return title + "\n" + theme.StyleMuted.Render("  Running...")
	case m.err != nil:
		return title + "\n" + theme.StyleError.Render("  Error: "+m.err.Error())
	case m.mutation:
		return title + "  " + theme.StyleMuted.Render(m.duration.Round(time.Millisecond).String()) + "\n" +
			theme.StyleSuccess.Render(fmt.Sprintf("  %d row(s) affected", m.affected))
	case m.columns == nil:
		return title + "\n" + theme.StyleMuted.Render("  Run a query or browse a table")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("  ")
	b.WriteString(theme.StyleMuted.Render(m.stats()))
	b.WriteString("\n")
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())

	if len(m.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(theme.StyleMuted.Render("  (no rows)"))
		return b.String()
	}

	end := min(m.offsetY+m.visibleRows(), len(m.rows))
	for i := m.offsetY; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(i))
	}
	return b.String()
}

func (m Model) stats() string {
	if m.page != nil {
		return fmt.Sprintf("%s │ page %d/%d │ %d row(s) total",
			m.table, m.page.Page, m.page.PageCount(), m.page.TotalCount)
	}
	return fmt.Sprintf("%d row(s) │ %s", len(m.rows), m.duration.Round(time.Millisecond))
}

func (m Model) renderHeader() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorPrimary)
	parts := make([]string, len(m.columns))
	for i, col := range m.columns {
		parts[i] = style.Render(fit(col, m.colWidth(i)))
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderRow(idx int) string {
	row := m.rows[idx]
	parts := make([]string, len(m.columns))
	for i := range m.columns {
		v := database.NullValue()
		if i < len(row) {
			v = row[i]
		}
		cell := fit(cellText(v), m.colWidth(i))

		switch {
		case m.focused && idx == m.cursorY && i == m.cursorX:
			cell = theme.StyleSelected.Reverse(true).Render(cell)
		case v.IsNull():
			cell = theme.StyleNull.Render(cell)
		}
		parts[i] = cell
	}

	prefix := "  "
	if idx == m.cursorY {
		prefix = theme.StyleSelected.Render("▸ ")
	}
	return prefix + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator() string {
	parts := make([]string, len(m.colWidths))
	for i, w := range m.colWidths {
		parts[i] = strings.Repeat("─", max(w, 1))
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}

// colWidth returns the display width of column i, or 10 when unknown.
func (m Model) colWidth(i int) int {
	if i < len(m.colWidths) {
		return m.colWidths[i]
	}
	return 10
}

// cellText renders a value for the grid. Newlines would break the layout.
func cellText(v database.Value) string {
	return strings.NewReplacer("\r\n", "↵", "\n", "↵", "\t", " ").Replace(v.String())
}

// fit truncates or pads s to exactly width display cells.
func fit(s string, width int) string {
	width = max(width, 1)
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
