// Package testutil provides shared test fakes for deckhand.
package testutil

import (
	"context"
	"sync/atomic"

	"github.com/deckhand-ci/deckhand/internal/options"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
)

// Compile-time interface satisfaction check.
var _ rundeck.Instance = (*FakeRemote)(nil)

// FakeRemote is a configurable in-memory rundeck.Instance for testing.
type FakeRemote struct {
	ConfigValid  bool
	Alive        bool
	LoginOK      bool
	ExecutionURL string
	ScheduleErr  error

	scheduleCalls atomic.Int64
	aliveCalls    atomic.Int64

	// LastGroupPath/LastJobName/LastOptions capture the most recent
	// scheduling call.
	LastGroupPath string
	LastJobName   string
	LastOptions   map[string]string
}

// NewFakeRemote returns a healthy fake that schedules successfully.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		ConfigValid:  true,
		Alive:        true,
		LoginOK:      true,
		ExecutionURL: "http://rundeck.example/execution/follow/1",
	}
}

func (f *FakeRemote) IsConfigurationValid() bool { return f.ConfigValid }

func (f *FakeRemote) IsAlive(_ context.Context) bool {
	f.aliveCalls.Add(1)
	return f.Alive
}

func (f *FakeRemote) IsLoginValid(_ context.Context) bool { return f.LoginOK }

func (f *FakeRemote) ScheduleJobExecution(_ context.Context, groupPath, jobName string, opts *options.Map) (string, error) {
	f.scheduleCalls.Add(1)
	f.LastGroupPath = groupPath
	f.LastJobName = jobName
	if opts != nil {
		f.LastOptions = opts.Values()
	}
	if f.ScheduleErr != nil {
		return "", f.ScheduleErr
	}
	return f.ExecutionURL, nil
}

// ScheduleCalls returns how many scheduling attempts were made.
func (f *FakeRemote) ScheduleCalls() int64 { return f.scheduleCalls.Load() }

// AliveCalls returns how many liveness probes were made.
func (f *FakeRemote) AliveCalls() int64 { return f.aliveCalls.Load() }
