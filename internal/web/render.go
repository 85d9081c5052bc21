package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/joacominatel/pgbrowse/internal/app"
	"github.com/joacominatel/pgbrowse/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageIndex         = "index.html"
	pageTables        = "tables.html"
	pageTable         = "table.html"
	pageSQLEditor     = "sql_editor.html"
	pageInsert        = "insert.html"
	pageConfirmDelete = "confirm_delete.html"
	pageError         = "error.html"
)

var pageNames = []string{
	pageIndex, pageTables, pageTable, pageSQLEditor, pageInsert, pageConfirmDelete, pageError,
}

// Notice levels.
const (
	levelSuccess = "success"
	levelWarning = "warning"
	levelError   = "error"
)

// Notice is a one-shot message shown above the page content.
type Notice struct {
	Level   string
	Message string
}

// viewData is the model handed to every page template.
type viewData struct {
	Title    string
	Database string
	Notice   *Notice
	Detail   *app.PgDetail

	Overview *database.Overview
	Tables   []database.Table
	Page     *database.Page
	Table    string
	Columns  []database.Column
	Query    string
	Result   *database.QueryResult
	Token    string
}

var templateFuncs = template.FuncMap{
	"isNull": func(v database.Value) bool { return v.IsNull() },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// render executes page into a buffer first so a template error never
// leaves a half-written response.
func (r *renderer) render(w http.ResponseWriter, status int, page string, data *viewData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
