package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	h := newHandlers(s.gateway, s.sessionStore, s.pages, s.logger)

	r.Get("/", h.Index)
	r.Get("/tables", h.Tables)
	r.Get("/table/{name}", h.Browse)
	r.Post("/table/{name}/delete", h.DeleteTable)
	r.Get("/table/{name}/insert", h.InsertForm)
	r.Post("/table/{name}/insert", h.Insert)
	r.Get("/sql_editor", h.SQLEditor)
	r.Post("/sql_editor", h.SQLEditor)
	r.Get("/export/{name}", h.Export)
	r.Get("/delete", h.ResetForm)
	r.Post("/delete", h.Reset)
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/execute_sql", h.APIExecute)
	})

	return r
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
