package statusbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/pgbrowse/internal/tui/theme"
)

// Level colors the status message.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// hints per pane, shown when there is no message.
var hints = map[string]string{
	"explorer": "Enter: Expand │ s: Browse │ x: Export CSV │ r: Reload │ Tab: Pane │ ?: Help │ q: Quit",
	"editor":   "Ctrl+E: Execute │ Ctrl+L: Format │ Tab: Complete │ Esc: Leave",
	"results":  "c: Copy cell │ y: Copy row │ f: Filter │ n/p: Page │ e: Export │ ?: Help",
}

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	connName   string
	activePane string
	message    string
	level      Level
}

// New creates a new status bar model.
func New() Model {
	return Model{activePane: "explorer"}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection indicator.
func (m *Model) SetConnected(connected bool, name string) {
	m.connected = connected
	m.connName = name
}

// SetActivePane updates the pane whose hints are shown.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage shows an informational message until the next one.
func (m *Model) SetMessage(msg string) {
	m.message = msg
	m.level = LevelInfo
}

// Notify shows a message at the given level.
func (m *Model) Notify(level Level, msg string) {
	m.message = msg
	m.level = level
}

// Message returns the current message.
func (m Model) Message() string {
	return m.message
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar.Width(m.width)

	var conn string
	if m.connected {
		conn = lipgloss.NewStyle().Foreground(theme.ColorSuccess).Render("●") + " " + m.connName
	} else {
		conn = lipgloss.NewStyle().Foreground(theme.ColorError).Render("●") + " disconnected"
	}

	right := hints[m.activePane]
	if m.message != "" {
		right = m.styled()
	}

	padding := m.width - lipgloss.Width(conn) - lipgloss.Width(right) - 4
	if padding < 1 {
		padding = 1
	}

	return style.Render(conn + strings.Repeat(" ", padding) + right)
}

func (m Model) styled() string {
	switch m.level {
	case LevelSuccess:
		return theme.StyleSuccess.Render(m.message)
	case LevelWarning:
		return theme.StyleWarning.Render(m.message)
	case LevelError:
		return theme.StyleError.Render(m.message)
	default:
		return m.message
	}
}
