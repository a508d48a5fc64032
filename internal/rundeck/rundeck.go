// Package rundeck implements the remote RunDeck instance client.
package rundeck

import (
	"context"

	"github.com/deckhand-ci/deckhand/internal/options"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// Instance is the remote job-execution system as seen by the notifier.
// Implementations own their transport and timeouts.
type Instance interface {
	// IsConfigurationValid reports whether url/login/password are structurally usable.
	IsConfigurationValid() bool
	// IsAlive probes reachability of the remote instance.
	IsAlive(ctx context.Context) bool
	// IsLoginValid probes the configured credentials. Configuration-test path only.
	IsLoginValid(ctx context.Context) bool
	// ScheduleJobExecution schedules one job execution and returns its URL.
	// Failures are *LoginError or *SchedulingError.
	ScheduleJobExecution(ctx context.Context, groupPath, jobName string, opts *options.Map) (string, error)
}

// DynamicInstance resolves the wrapped instance on every call, so a client
// rebuilt from updated connection settings is picked up without recreating
// whatever wraps it (notably a breaker, whose failure counts must survive
// across builds).
type DynamicInstance func() Instance

func (f DynamicInstance) IsConfigurationValid() bool { return f().IsConfigurationValid() }

func (f DynamicInstance) IsAlive(ctx context.Context) bool { return f().IsAlive(ctx) }

func (f DynamicInstance) IsLoginValid(ctx context.Context) bool { return f().IsLoginValid(ctx) }

func (f DynamicInstance) ScheduleJobExecution(ctx context.Context, groupPath, jobName string, opts *options.Map) (string, error) {
	return f().ScheduleJobExecution(ctx, groupPath, jobName, opts)
}

// LoginError reports an authentication-class failure from the remote instance.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string { return "rundeck login failed: " + e.Message }

// SchedulingError reports a scheduling-class failure: job not found, options
// rejected, remote-side errors.
type SchedulingError struct {
	Message string
}

func (e *SchedulingError) Error() string { return "rundeck scheduling failed: " + e.Message }

// ConnectionCheck runs the global configuration test: configuration shape,
// then reachability, then credentials.
func ConnectionCheck(ctx context.Context, inst Instance) types.ConnectionStatus {
	if inst == nil || !inst.IsConfigurationValid() {
		return types.ConnConfigInvalid
	}
	if !inst.IsAlive(ctx) {
		return types.ConnNotAlive
	}
	if !inst.IsLoginValid(ctx) {
		return types.ConnLoginInvalid
	}
	return types.ConnOK
}
