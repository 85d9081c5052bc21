package results

import "github.com/joacominatel/pgbrowse/internal/tui/statusbar"

// SetEditorQueryMsg puts a generated statement in the editor for review.
type SetEditorQueryMsg struct {
	Query string
}

// StatusNotifyMsg shows a message in the status bar.
type StatusNotifyMsg struct {
	Level   statusbar.Level
	Message string
}

// PageRequestMsg asks for another page of the browsed table.
type PageRequestMsg struct {
	Table string
	Page  int
}
