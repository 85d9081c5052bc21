package editor

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/pgbrowse/internal/database"
	"github.com/joacominatel/pgbrowse/internal/tui/theme"
)

// ExecuteQueryMsg is sent when a statement should run.
type ExecuteQueryMsg struct {
	Query string
}

// ConfirmQueryMsg is sent when a statement that may modify data was
// submitted once and needs a second submit to run.
type ConfirmQueryMsg struct {
	Query string
}

var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"insert": true, "into": true, "update": true, "delete": true,
	"create": true, "drop": true, "alter": true, "table": true,
	"truncate": true, "index": true, "join": true, "inner": true,
	"outer": true, "left": true, "right": true, "cross": true, "on": true,
	"not": true, "in": true, "is": true, "null": true, "like": true,
	"ilike": true, "order": true, "by": true, "group": true, "having": true,
	"limit": true, "offset": true, "as": true, "distinct": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"between": true, "exists": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "values": true,
	"set": true, "begin": true, "commit": true, "rollback": true,
	"union": true, "all": true, "asc": true, "desc": true, "with": true,
	"primary": true, "key": true, "foreign": true, "references": true,
	"cascade": true, "restrict": true, "default": true, "returning": true,
	"true": true, "false": true, "explain": true, "analyze": true,
}

// tableContext lists the keywords after which a table name is expected.
var tableContext = []string{"FROM", "JOIN", "TABLE", "INTO", "UPDATE"}

// Model is the SQL editor pane.
type Model struct {
	textarea textarea.Model
	width    int
	height   int
	focused  bool

	// armed holds a non-SELECT statement waiting for a second submit.
	armed string

	tableNames  []string
	completing  bool
	completions []string
	compIndex   int
}

// New creates a new editor model.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "SELECT * FROM ..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorBorder)

	return Model{textarea: ta}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(max(1, w-2))
	m.textarea.SetHeight(max(1, h-2))
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// Focused returns whether the editor has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.textarea.SetValue(query)
	m.armed = ""
}

// SetTableNames sets the table names offered by Tab completion.
func (m *Model) SetTableNames(names []string) {
	m.tableNames = names
}

// Armed reports whether a statement is waiting for confirmation.
func (m Model) Armed() bool {
	return m.armed != ""
}

// Busy reports whether Tab or Esc belong to the editor right now.
func (m Model) Busy() bool {
	return m.completing || m.armed != ""
}

// Clear empties the editor.
func (m *Model) Clear() {
	m.textarea.Reset()
	m.armed = ""
	m.cancelCompletion()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+e", "f5":
			return m, m.submit()
		case "ctrl+k":
			m.Clear()
			return m, nil
		case "ctrl+l":
			m.formatKeywords()
			m.armed = ""
			return m, nil
		case "tab":
			if m.tryCompletion() {
				return m, nil
			}
		case "esc":
			if m.completing {
				m.cancelCompletion()
				return m, nil
			}
			if m.armed != "" {
				m.armed = ""
				return m, nil
			}
		}

		if m.completing && key.String() != "tab" {
			m.cancelCompletion()
		}
	}

	before := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if m.textarea.Value() != before {
		m.armed = ""
	}
	return m, cmd
}

// submit runs SELECT statements right away. Anything else is armed on
// the first submit and runs on the second one, as long as the text did
// not change in between.
func (m *Model) submit() tea.Cmd {
	query := strings.TrimSpace(m.textarea.Value())
	if query == "" {
		return nil
	}
	m.cancelCompletion()

	if database.LooksLikeSelect(query) || m.armed == query {
		m.armed = ""
		return func() tea.Msg { return ExecuteQueryMsg{Query: query} }
	}

	m.armed = query
	return func() tea.Msg { return ConfirmQueryMsg{Query: query} }
}

// formatKeywords uppercases SQL keywords outside quoted literals.
func (m *Model) formatKeywords() {
	val := m.textarea.Value()
	if val == "" {
		return
	}
	m.textarea.SetValue(FormatKeywords(val))
}

// FormatKeywords uppercases SQL keywords in s. Text inside single or
// double quotes is left untouched.
func FormatKeywords(s string) string {
	var out, word strings.Builder
	var quote rune

	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if sqlKeywords[strings.ToLower(w)] {
			w = strings.ToUpper(w)
		}
		out.WriteString(w)
		word.Reset()
	}

	for _, ch := range s {
		switch {
		case quote != 0:
			out.WriteRune(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			flush()
			quote = ch
			out.WriteRune(ch)
		case unicode.IsLetter(ch) || ch == '_' || (word.Len() > 0 && unicode.IsDigit(ch)):
			word.WriteRune(ch)
		default:
			flush()
			out.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}

// tryCompletion completes the word before the cursor with a table name.
// Repeated Tab presses cycle through the candidates.
func (m *Model) tryCompletion() bool {
	if len(m.tableNames) == 0 {
		return false
	}

	if m.completing && len(m.completions) > 0 {
		m.compIndex = (m.compIndex + 1) % len(m.completions)
		m.applyCompletion()
		return true
	}

	val := m.textarea.Value()
	partial := lastWord(val)
	if partial == "" || !inTableContext(val) {
		return false
	}

	matches := Complete(m.tableNames, partial)
	if len(matches) == 0 {
		return false
	}

	m.completing = true
	m.completions = matches
	m.compIndex = 0
	m.applyCompletion()
	return true
}

// Complete returns the names that start with partial, ignoring case.
func Complete(names []string, partial string) []string {
	lower := strings.ToLower(partial)
	var matches []string
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			matches = append(matches, name)
		}
	}
	return matches
}

func inTableContext(s string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range tableContext {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func (m *Model) applyCompletion() {
	val := m.textarea.Value()
	base := strings.TrimSuffix(val, lastWord(val))
	m.textarea.SetValue(base + m.completions[m.compIndex])
	m.armed = ""
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.completions = nil
	m.compIndex = 0
}

// lastWord returns the trailing identifier of s.
func lastWord(s string) string {
	end := len(s)
	i := end
	for i > 0 && isIdentChar(rune(s[i-1])) {
		i--
	}
	return s[i:end]
}

func isIdentChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_'
}

// View renders the editor.
func (m Model) View() string {
	title := theme.StyleTitle.Render("SQL")
	if m.armed != "" {
		title += theme.StyleWarning.Render("  press Ctrl+E again to run")
	}

	var hint string
	if m.completing && len(m.completions) > 1 {
		parts := make([]string, 0, len(m.completions))
		for i, c := range m.completions {
			if i == m.compIndex {
				parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true).Render(c))
			} else {
				parts = append(parts, theme.StyleMuted.Render(c))
			}
		}
		hint = "\n " + theme.StyleMuted.Render("Tab: ") + strings.Join(parts, " │ ")
	}

	return title + "\n" + m.textarea.View() + hint
}
