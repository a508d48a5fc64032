package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

func queryLimit(r *http.Request, def, max int) int {
	limit := def
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= max {
			limit = n
		}
	}
	return limit
}

// ListExecutions returns recent execution badges for a project.
func (h *Handlers) ListExecutions(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	recs, err := h.store.ListExecutions(r.Context(), project, queryLimit(r, 50, 500))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to list executions", err)
		return
	}
	if recs == nil {
		recs = []types.ExecutionRecord{}
	}
	_ = json.NewEncoder(w).Encode(recs)
}

// ListEvents returns recent notification decisions for a project.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	events, err := h.store.ListEvents(r.Context(), project, queryLimit(r, 50, 500))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to list events", err)
		return
	}
	if events == nil {
		events = []types.Event{}
	}
	_ = json.NewEncoder(w).Encode(events)
}
