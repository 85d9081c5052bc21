package explorer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeTable
	NodeColumn
)

// TreeNode is a single node in the schema tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // children fetched

	Table    string // parent table, for columns
	DataType string
	Primary  bool
	RowCount int64
	Size     string
}

type flatItem struct {
	node  *TreeNode
	depth int
}

// RequestColumnsMsg asks for the columns of an expanded table.
type RequestColumnsMsg struct {
	Table string
}

// BrowseTableMsg asks for the first page of a table.
type BrowseTableMsg struct {
	Table string
}

// ExportTableMsg asks for a CSV export of a table.
type ExportTableMsg struct {
	Table string
}

// Model is the explorer (schema tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates a new explorer model.
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

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetOverview populates the tree from the database overview. Tables that
// were expanded before keep their state when still present.
func (m *Model) SetOverview(dbName string, ov *database.Overview) {
	previous := map[string]*TreeNode{}
	if m.tree != nil {
		for _, t := range m.tree.Children {
			previous[t.Name] = t
		}
	}

	root := &TreeNode{
		Kind:     NodeDatabase,
		Name:     dbName,
		Expanded: true,
		Loaded:   true,
	}
	for _, t := range ov.Tables {
		node := &TreeNode{
			Kind:     NodeTable,
			Name:     t.Name,
			RowCount: t.RowCount,
			Size:     t.Size,
		}
		if old, ok := previous[t.Name]; ok {
			node.Children = old.Children
			node.Expanded = old.Expanded
			node.Loaded = old.Loaded
		}
		root.Children = append(root.Children, node)
	}

	m.tree = root
	m.flatten()
	m.loading = false
}

// TableNames returns the names of every table in the tree.
func (m Model) TableNames() []string {
	if m.tree == nil {
		return nil
	}
	names := make([]string, 0, len(m.tree.Children))
	for _, t := range m.tree.Children {
		names = append(names, t.Name)
	}
	return names
}

// SetColumns adds column nodes to a table node.
func (m *Model) SetColumns(table string, columns []database.Column) {
	node := m.findTable(table)
	if node == nil {
		return
	}
	node.Children = nil
	for _, col := range columns {
		node.Children = append(node.Children, &TreeNode{
			Kind:     NodeColumn,
			Name:     col.Name,
			Table:    table,
			DataType: col.DataType,
			Primary:  col.IsPrimary,
		})
	}
	node.Loaded = true
	m.flatten()
}

func (m *Model) findTable(table string) *TreeNode {
	if m.tree == nil {
		return nil
	}
	for _, t := range m.tree.Children {
		if t.Name == table {
			return t
		}
	}
	return nil
}

// SelectedTable returns the table under the cursor, or the parent table
// of the column under the cursor.
func (m Model) SelectedTable() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", false
	}
	node := m.items[m.cursor].node
	switch node.Kind {
	case NodeTable:
		return node.Name, true
	case NodeColumn:
		return node.Table, true
	}
	return "", false
}

func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Update handles messages for the explorer.
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
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.items)-1)
	case "enter", "right", "l":
		return m, m.expand()
	case "left", "h":
		m.collapse()
	case "s":
		if table, ok := m.SelectedTable(); ok {
			return m, func() tea.Msg { return BrowseTableMsg{Table: table} }
		}
	case "x":
		if table, ok := m.SelectedTable(); ok {
			return m, func() tea.Msg { return ExportTableMsg{Table: table} }
		}
	}

	return m, nil
}

func (m *Model) expand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node
	if node.Kind == NodeColumn {
		return nil
	}

	if node.Expanded {
		node.Expanded = false
		m.flatten()
		return nil
	}

	node.Expanded = true
	m.flatten()

	if node.Kind == NodeTable && !node.Loaded {
		table := node.Name
		return func() tea.Msg { return RequestColumnsMsg{Table: table} }
	}
	return nil
}

func (m *Model) collapse() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	node := m.items[m.cursor].node

	// On a column, collapse its table and move there.
	if node.Kind == NodeColumn {
		for i := m.cursor - 1; i >= 0; i-- {
			if m.items[i].node.Kind == NodeTable {
				m.cursor = i
				node = m.items[i].node
				break
			}
		}
	}

	if node.Expanded {
		node.Expanded = false
		m.flatten()
	}
}

// View renders the explorer.
func (m Model) View() string {
	title := theme.StyleTitle.Render("Tables")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	visible := max(1, m.height-2)
	offset := 0
	if m.cursor >= visible {
		offset = m.cursor - visible + 1
	}

	for i := offset; i < len(m.items) && i < offset+visible; i++ {
		b.WriteString(m.renderNode(m.items[i], i == m.cursor))
		if i < offset+visible-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	icon := "  "
	if node.Kind != NodeColumn {
		icon = "▶ "
		if node.Expanded {
			icon = "▼ "
		}
	}

	name := node.Name
	switch node.Kind {
	case NodeTable:
		name = fmt.Sprintf("%s %s", node.Name, theme.StyleMuted.Render(fmt.Sprintf("(%d)", node.RowCount)))
	case NodeColumn:
		typ := node.DataType
		if node.Primary {
			typ += " PK"
		}
		name = fmt.Sprintf("%s %s", node.Name, theme.StyleMuted.Render(typ))
	}

	line := indent + icon + name
	if m.width > 4 && lipgloss.Width(line) > m.width-2 {
		line = truncate(line, m.width-4) + ".."
	}

	if selected {
		return theme.StyleSelected.Render(line)
	}
	return line
}

// truncate cuts s to at most w display cells.
func truncate(s string, w int) string {
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > w {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}
