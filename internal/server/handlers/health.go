package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// Health returns the server health status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
	}

	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	}); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
}

// CheckConnection probes the configured rundeck instance and reports where
// the connection chain breaks, if anywhere.
func (h *Handlers) CheckConnection(w http.ResponseWriter, r *http.Request) {
	status := rundeck.ConnectionCheck(r.Context(), h.remote())

	code := http.StatusOK
	if status != types.ConnOK {
		code = http.StatusBadGateway
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
}
