// Package handlers implements HTTP request handlers for the Deckhand API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/internal/gate"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/internal/store"
)

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	gate     *gate.Gate
	deferred *gate.Deferred
	store    store.Store
	app      *config.App
	handle   *config.Handle
	logger   *slog.Logger
}

// New creates a new Handlers instance.
func New(g *gate.Gate, deferred *gate.Deferred, s store.Store, app *config.App,
	handle *config.Handle) *Handlers {
	return &Handlers{
		gate:     g,
		deferred: deferred,
		store:    s,
		app:      app,
		handle:   handle,
		logger:   slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (h *Handlers) SetLogger(l *slog.Logger) {
	if l != nil {
		h.logger = l
	}
}

// remote builds a client from the current connection settings snapshot.
func (h *Handlers) remote() rundeck.Instance {
	return rundeck.NewClient(h.handle.Get())
}

// writeError logs the internal error and returns a sanitized JSON error to the client.
func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err, "status", status)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
