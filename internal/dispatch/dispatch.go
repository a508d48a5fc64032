// Package dispatch calls the remote scheduling interface and classifies the outcome.
package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/deckhand-ci/deckhand/internal/metrics"
	"github.com/deckhand-ci/deckhand/internal/options"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/internal/store"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// Dispatcher performs a single scheduling attempt per build completion and
// persists the resulting execution badge. No retries at this layer.
type Dispatcher struct {
	store store.Store
	now   func() time.Time
	newID func() string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the time source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithIDFunc sets the record ID generator (useful for testing).
func WithIDFunc(f func() string) Option {
	return func(d *Dispatcher) { d.newID = f }
}

// New creates a Dispatcher persisting into s.
func New(s store.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store: s,
		now:   time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	if d.newID == nil {
		// One Dispatcher serves all concurrent build completions, so the
		// monotonic entropy must be safe to share.
		entropy := &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		}
		d.newID = func() string {
			return ulid.MustNew(ulid.Timestamp(d.now()), entropy).String()
		}
	}
	return d
}

// Dispatch schedules cfg's job on the remote instance with the given
// options. A nil opts map is the parse-failure sentinel: the remote system is
// not called and the outcome is options-invalid. On success exactly one
// execution record is persisted against the build.
func (d *Dispatcher) Dispatch(ctx context.Context, remote rundeck.Instance, build *types.Build,
	cfg types.NotifierConfig, opts *options.Map, log types.BuildLog) types.Outcome {

	if opts == nil {
		metrics.NotificationsFailed.Add(1)
		log.Printf("cannot notify rundeck: options could not be parsed")
		return types.Outcome{
			Kind:    types.OutcomeOptionsInvalid,
			Message: "options could not be parsed",
		}
	}

	execURL, err := remote.ScheduleJobExecution(ctx, cfg.GroupPath, cfg.JobName, opts)
	if err != nil {
		return d.classify(ctx, build, cfg, err, log)
	}

	rec := types.ExecutionRecord{
		ID:          d.newID(),
		Project:     build.Project,
		BuildNumber: build.Number,
		DisplayName: types.ExecutionBadgeName,
		IconRef:     types.DefaultExecutionIcon,
		URL:         execURL,
		CreatedAt:   d.now().UTC(),
	}
	if err := d.store.PutExecution(ctx, rec); err != nil {
		if errors.Is(err, store.ErrExecutionExists) {
			log.Printf("execution badge already recorded for build %s, keeping the existing one", build.Key())
		} else {
			log.Printf("failed to persist execution badge: %v", err)
		}
	}

	metrics.NotificationsSucceeded.Add(1)
	log.Printf("notification succeeded, execution url: %s", execURL)
	return types.Outcome{Kind: types.OutcomeSuccess, ExecutionURL: execURL}
}

// classify maps remote errors to the outcome taxonomy. Authentication-class
// failures are distinguished from scheduling-class failures; both are logged
// once and never retried.
func (d *Dispatcher) classify(_ context.Context, build *types.Build, cfg types.NotifierConfig,
	err error, log types.BuildLog) types.Outcome {

	var loginErr *rundeck.LoginError
	if errors.As(err, &loginErr) {
		metrics.LoginFailures.Add(1)
		log.Printf("login failed on rundeck instance: %s", loginErr.Message)
		return types.Outcome{Kind: types.OutcomeLoginFailed, Message: loginErr.Message}
	}

	var schedErr *rundeck.SchedulingError
	if errors.As(err, &schedErr) {
		metrics.SchedulingFailures.Add(1)
		log.Printf("scheduling failed for job %s: %s", cfg.JobRef(), schedErr.Message)
		return types.Outcome{Kind: types.OutcomeSchedulingFailed, Message: schedErr.Message}
	}

	// Untyped errors from a custom Instance implementation count as
	// scheduling failures.
	metrics.SchedulingFailures.Add(1)
	log.Printf("scheduling failed for job %s on build %s: %v", cfg.JobRef(), build.Key(), err)
	return types.Outcome{Kind: types.OutcomeSchedulingFailed, Message: err.Error()}
}
