package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/joacominatel/pgbrowse/internal/app"
	"github.com/joacominatel/pgbrowse/internal/database"
)

type executeRequest struct {
	Query string `json:"query"`
}

type projectionResponse struct {
	Success  bool              `json:"success"`
	Columns  []string          `json:"columns"`
	Rows     []database.Record `json:"rows"`
	RowCount int64             `json:"rowcount"`
}

type mutationResponse struct {
	Success  bool   `json:"success"`
	RowCount int64  `json:"rowcount"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// APIExecute runs a statement from a JSON body and returns the result as JSON.
func (h *Handlers) APIExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No query provided"})
		return
	}

	res, err := h.gateway.Execute(r.Context(), req.Query)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("api execute failed", "error", err)
		}
		writeJSON(w, status, newErrorResponse(err))
		return
	}

	if res.IsProjection() {
		columns := res.Columns
		if columns == nil {
			columns = []string{}
		}
		writeJSON(w, http.StatusOK, projectionResponse{
			Success:  true,
			Columns:  columns,
			Rows:     res.Records(),
			RowCount: res.RowCount(),
		})
		return
	}

	writeJSON(w, http.StatusOK, mutationResponse{
		Success:  true,
		RowCount: res.RowsAffected,
		Message:  resultMessage(res),
	})
}

func newErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error()}
	if d := app.Detail(err); d != nil {
		resp.Code = d.Code
		resp.Detail = d.Detail
		resp.Hint = d.Hint
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
