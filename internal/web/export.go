package web

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joacominatel/pgbrowse/internal/export"
)

// Export streams a table as a CSV attachment.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "name")

	aw := &attachmentWriter{w: w, filename: export.Filename(table)}
	enc := export.NewCSV(aw)

	err := h.gateway.Export(r.Context(), table, enc)
	if err == nil {
		err = enc.Flush()
	}
	if err == nil {
		if !aw.started {
			aw.writeHeader()
		}
		return
	}

	if aw.started {
		// Headers are gone; all that is left is to cut the stream short.
		h.logger.Warn("export aborted", "table", table, "rows", enc.Rows(), "error", err)
		return
	}

	data := h.view(table)
	data.Table = table
	h.renderError(w, r, pageError, data, err)
}

// attachmentWriter sends the download headers on the first write, so a
// failure before any row is flushed can still produce an error page.
type attachmentWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (a *attachmentWriter) writeHeader() {
	a.started = true
	h := a.w.Header()
	h.Set("Content-Type", "text/csv")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.filename}))
	a.w.WriteHeader(http.StatusOK)
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.writeHeader()
	}
	return a.w.Write(p)
}
