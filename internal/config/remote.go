package config

import (
	"sync/atomic"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

// Handle holds the live rundeck connection settings. Readers take a snapshot
// and never observe a partial update while a reconfigure is in flight.
type Handle struct {
	ptr atomic.Pointer[types.RemoteConfig]
}

// NewHandle creates a handle seeded with rc.
func NewHandle(rc types.RemoteConfig) *Handle {
	h := &Handle{}
	h.Set(rc)
	return h
}

// Get returns the current settings snapshot.
func (h *Handle) Get() types.RemoteConfig {
	return *h.ptr.Load()
}

// Set replaces the settings atomically.
func (h *Handle) Set(rc types.RemoteConfig) {
	h.ptr.Store(&rc)
}
