package gate

import (
	"sync"

	"github.com/deckhand-ci/deckhand/internal/metrics"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// Deferred is the two-phase completion queue. Phase 1 (inline, during the
// build's own flow) records failure signals for builds whose notifier is
// configured not to fail the build. Phase 2 runs after the host has committed
// the build's final result: Finalize drains the recorded signals so the
// caller can apply them without changing the already-fixed build result.
type Deferred struct {
	mu      sync.Mutex
	signals map[string][]types.Outcome
}

// NewDeferred creates an empty deferred-signal queue.
func NewDeferred() *Deferred {
	return &Deferred{signals: make(map[string][]types.Outcome)}
}

// Record stores a failure signal for the given build identity.
func (d *Deferred) Record(buildKey string, outcome types.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.signals[buildKey] = append(d.signals[buildKey], outcome)
}

// Pending reports whether buildKey has unapplied signals.
func (d *Deferred) Pending(buildKey string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.signals[buildKey]) > 0
}

// Finalize removes and returns the signals recorded for buildKey. Called
// once the build result is final; an empty result means the step stays
// successful.
func (d *Deferred) Finalize(buildKey string) []types.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.signals[buildKey]
	delete(d.signals, buildKey)
	metrics.DeferredSignalsApplied.Add(int64(len(out)))
	return out
}
