package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/joacominatel/pgbrowse/internal/app"
	"github.com/joacominatel/pgbrowse/internal/database"
)

// Gateway is the application surface the handlers depend on.
// *app.Service implements it.
type Gateway interface {
	DatabaseName() string
	Ping(ctx context.Context) error
	Overview(ctx context.Context) (*database.Overview, error)
	Describe(ctx context.Context) ([]database.Table, error)
	Columns(ctx context.Context, table string) ([]database.Column, error)
	Browse(ctx context.Context, table string, page, perPage int) (*database.Page, error)
	Execute(ctx context.Context, query string) (*database.QueryResult, error)
	Export(ctx context.Context, table string, sink database.RowSink) error
	Insert(ctx context.Context, table string, fields []database.Field) (int64, error)
	DeleteAll(ctx context.Context, table string) (int64, error)
	ResetSchema(ctx context.Context) error
}

var _ Gateway = (*app.Service)(nil)

// Handlers provides the HTTP handlers.
type Handlers struct {
	gateway      Gateway
	sessionStore sessions.Store
	pages        *renderer
	logger       *slog.Logger
}

func newHandlers(gw Gateway, store sessions.Store, pages *renderer, logger *slog.Logger) *Handlers {
	return &Handlers{
		gateway:      gw,
		sessionStore: store,
		pages:        pages,
		logger:       logger,
	}
}

// Index renders the database summary.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, nil)
}

func (h *Handlers) renderIndex(w http.ResponseWriter, r *http.Request, status int, notice *Notice) {
	data := h.view("Overview")
	data.Notice = notice

	ov, err := h.gateway.Overview(r.Context())
	if err != nil {
		h.renderError(w, r, pageIndex, data, err)
		return
	}
	data.Overview = ov
	h.render(w, status, pageIndex, data)
}

// Tables renders every table with its column metadata.
func (h *Handlers) Tables(w http.ResponseWriter, r *http.Request) {
	data := h.view("Tables")

	tables, err := h.gateway.Describe(r.Context())
	if err != nil {
		h.renderError(w, r, pageTables, data, err)
		return
	}
	data.Tables = tables
	h.render(w, http.StatusOK, pageTables, data)
}

// Browse renders one page of a table.
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "name")
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", database.DefaultPerPage)
	h.renderBrowse(w, r, table, page, perPage, http.StatusOK, nil)
}

func (h *Handlers) renderBrowse(w http.ResponseWriter, r *http.Request, table string, page, perPage, status int, notice *Notice) {
	data := h.view(table)
	data.Table = table
	data.Notice = notice

	p, err := h.gateway.Browse(r.Context(), table, page, perPage)
	if err != nil {
		h.renderError(w, r, pageTable, data, err)
		return
	}
	data.Page = p
	h.render(w, status, pageTable, data)
}

// SQLEditor renders the editor and runs the submitted statement on POST.
func (h *Handlers) SQLEditor(w http.ResponseWriter, r *http.Request) {
	data := h.view("SQL editor")
	if r.Method != http.MethodPost {
		h.render(w, http.StatusOK, pageSQLEditor, data)
		return
	}

	data.Query = r.PostFormValue("query")
	if strings.TrimSpace(data.Query) == "" {
		data.Notice = &Notice{Level: levelWarning, Message: "Please enter a SQL query"}
		h.render(w, http.StatusBadRequest, pageSQLEditor, data)
		return
	}

	res, err := h.gateway.Execute(r.Context(), data.Query)
	if err != nil {
		h.renderError(w, r, pageSQLEditor, data, err)
		return
	}

	data.Result = res
	data.Notice = &Notice{Level: levelSuccess, Message: resultMessage(res)}
	h.render(w, http.StatusOK, pageSQLEditor, data)
}

// InsertForm renders an input per column.
func (h *Handlers) InsertForm(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "name")
	data := h.view("Insert into " + table)
	data.Table = table

	cols, err := h.gateway.Columns(r.Context(), table)
	if err != nil {
		h.renderError(w, r, pageInsert, data, err)
		return
	}
	data.Columns = cols
	h.render(w, http.StatusOK, pageInsert, data)
}

// Insert adds one row from the submitted form, skipping empty fields.
func (h *Handlers) Insert(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "name")
	if err := r.ParseForm(); err != nil {
		h.renderBrowse(w, r, table, 1, database.DefaultPerPage, http.StatusBadRequest,
			&Notice{Level: levelError, Message: "Invalid form: " + err.Error()})
		return
	}

	fields := make([]database.Field, 0, len(r.PostForm))
	for col, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		fields = append(fields, database.Field{Column: col, Value: values[0]})
	}
	slices.SortFunc(fields, func(a, b database.Field) int {
		return strings.Compare(a.Column, b.Column)
	})

	if _, err := h.gateway.Insert(r.Context(), table, fields); err != nil {
		var ve *app.ErrValidation
		if errors.As(err, &ve) {
			h.renderBrowse(w, r, table, 1, database.DefaultPerPage, http.StatusBadRequest,
				&Notice{Level: levelWarning, Message: capitalize(err.Error()) + "."})
			return
		}
		data := h.view("Insert into " + table)
		data.Table = table
		h.renderError(w, r, pageError, data, err)
		return
	}

	h.renderBrowse(w, r, table, 1, database.DefaultPerPage, http.StatusOK,
		&Notice{Level: levelSuccess, Message: "Data inserted successfully."})
}

// DeleteTable removes every row of one table.
func (h *Handlers) DeleteTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "name")

	if _, err := h.gateway.DeleteAll(r.Context(), table); err != nil {
		data := h.view(table)
		data.Table = table
		h.renderError(w, r, pageError, data, err)
		return
	}

	h.renderBrowse(w, r, table, 1, database.DefaultPerPage, http.StatusOK,
		&Notice{Level: levelSuccess, Message: "All data has been deleted from " + table + "."})
}

// Health opens and closes one session.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) view(title string) *viewData {
	return &viewData{Title: title, Database: h.gateway.DatabaseName()}
}

// renderError renders page with an error notice and the status mapped
// from err.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, page string, data *viewData, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed", "path", r.URL.Path, "error", err)
	}
	data.Notice = &Notice{Level: levelError, Message: capitalize(err.Error())}
	data.Detail = app.Detail(err)
	data.Overview = nil
	data.Page = nil
	data.Result = nil
	h.render(w, status, page, data)
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data *viewData) {
	if err := h.pages.render(w, status, page, data); err != nil {
		h.logger.Error("render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// statusFor maps application errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation *app.ErrValidation
		notFound   *app.ErrNotFound
		conn       *app.ErrConnection
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conn):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func resultMessage(res *database.QueryResult) string {
	if res.IsProjection() {
		return "Query returned " + strconv.FormatInt(res.RowCount(), 10) + " row(s)"
	}
	return "Query executed successfully. " + strconv.FormatInt(res.RowsAffected, 10) + " row(s) affected."
}

// queryInt reads an integer query parameter, falling back to def when it
// is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
