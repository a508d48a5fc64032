package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

// buildCompletedRequest is the payload a CI adapter posts when a build
// finishes its main phase.
type buildCompletedRequest struct {
	Notifier string      `json:"notifier,omitempty"`
	Build    types.Build `json:"build"`
}

// buildCompletedResponse reports the notification decision back to the
// adapter, including the per-decision log lines the adapter should surface
// in the build's own log.
type buildCompletedResponse struct {
	Outcome      types.OutcomeKind `json:"outcome"`
	Message      string            `json:"message,omitempty"`
	ExecutionURL string            `json:"executionUrl,omitempty"`
	StepOK       bool              `json:"stepOk"`
	Log          []string          `json:"log,omitempty"`
}

// lineLog collects build log lines for the HTTP response.
type lineLog struct {
	lines []string
}

func (l *lineLog) Printf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// BuildCompleted runs the notification gate for one finished build.
func (h *Handlers) BuildCompleted(w http.ResponseWriter, r *http.Request) {
	var req buildCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Build.Project == "" || req.Build.Number <= 0 {
		h.writeError(w, http.StatusBadRequest, "build project and number are required", nil)
		return
	}

	cfg, ok := h.app.Notifier(req.Notifier)
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown notifier %q", req.Notifier), nil)
		return
	}

	// Persist the build first so later downstream builds can walk their
	// upstream cause into this one's change log.
	if err := h.store.PutBuild(r.Context(), req.Build); err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to record build", err)
		return
	}

	log := &lineLog{}
	res := h.gate.Run(r.Context(), &req.Build, cfg, h.deferred, log)

	_ = json.NewEncoder(w).Encode(buildCompletedResponse{
		Outcome:      res.Outcome.Kind,
		Message:      res.Outcome.Message,
		ExecutionURL: res.Outcome.ExecutionURL,
		StepOK:       res.StepOK,
		Log:          log.lines,
	})
}

// buildFinalizedResponse reports any failure signals that were parked while
// the build result was still mutable.
type buildFinalizedResponse struct {
	FailBuild bool            `json:"failBuild"`
	Signals   []types.Outcome `json:"signals,omitempty"`
}

// BuildFinalized drains deferred failure signals for a build whose result is
// now committed. A second call for the same build is a no-op.
func (h *Handlers) BuildFinalized(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid build number", err)
		return
	}

	build := types.Build{Project: project, Number: number}
	signals := h.deferred.Finalize(build.Key())

	_ = json.NewEncoder(w).Encode(buildFinalizedResponse{
		FailBuild: len(signals) > 0,
		Signals:   signals,
	})
}

// GetExecution returns the execution badge recorded for a build, if any.
func (h *Handlers) GetExecution(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid build number", err)
		return
	}

	rec, err := h.store.GetExecution(r.Context(), project, number)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to load execution", err)
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "no execution recorded for build", nil)
		return
	}
	_ = json.NewEncoder(w).Encode(rec)
}
