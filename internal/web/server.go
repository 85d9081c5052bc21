// Package web serves the browser front end and the JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end.
type Server struct {
	gateway      Gateway
	sessionStore *sessions.CookieStore
	addr         string
	logger       *slog.Logger
	pages        *renderer
}

// Config holds configuration for the HTTP server.
type Config struct {
	Gateway       Gateway
	Addr          string
	SessionSecret string
	Logger        *slog.Logger
}

// NewServer creates a new server instance. An empty SessionSecret gets a
// random key, so reset tokens do not survive a restart.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("generate session key")
		}
	}

	sessionStore := sessions.NewCookieStore(key)
	sessionStore.MaxAge(3600)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	pages, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	return &Server{
		gateway:      cfg.Gateway,
		sessionStore: sessionStore,
		addr:         cfg.Addr,
		logger:       cfg.Logger,
		pages:        pages,
	}, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr, "database", s.gateway.DatabaseName())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
