// Package server implements the Deckhand HTTP API server.
package server

import (
	"context"
	"expvar"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/internal/gate"
	"github.com/deckhand-ci/deckhand/internal/server/handlers"
	"github.com/deckhand-ci/deckhand/internal/store"
)

const maxBodyBytes = 1 << 20

// Server is the Deckhand HTTP API server.
type Server struct {
	router chi.Router
	addr   string
	srv    *http.Server
}

// New creates a new HTTP server.
func New(addr, apiKey string, g *gate.Gate, deferred *gate.Deferred, s store.Store,
	app *config.App, handle *config.Handle) *Server {

	srv := &Server{addr: addr}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(APIKeyMiddleware(apiKey))
	r.Use(MaxBodyMiddleware(maxBodyBytes))
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	srv.router = r
	srv.registerRoutes(r, handlers.New(g, deferred, s, app, handle))
	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	slog.Info("deckhand server listening", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Route("/api", func(r chi.Router) {
		// Health and connection checks
		r.Get("/health", h.Health)
		r.Get("/check", h.CheckConnection)

		// Build lifecycle
		r.Post("/events/build-completed", h.BuildCompleted)
		r.Post("/builds/{project}/{number}/finalized", h.BuildFinalized)
		r.Get("/builds/{project}/{number}/execution", h.GetExecution)

		// History
		r.Get("/executions/{project}", h.ListExecutions)
		r.Get("/events/{project}", h.ListEvents)

		// Rundeck connection settings
		r.Get("/remote", h.GetRemote)
		r.Put("/remote", h.PutRemote)
	})

	// Process counters
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())
}
