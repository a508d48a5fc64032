package rundeck

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/deckhand-ci/deckhand/internal/options"
)

// BreakerSettings tunes the liveness circuit breaker.
type BreakerSettings struct {
	FailThreshold uint32
	Cooldown      time.Duration
}

// DefaultBreakerSettings returns the defaults used in serve mode.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailThreshold: 5, Cooldown: 30 * time.Second}
}

// BreakerInstance wraps an Instance with a circuit breaker on the liveness
// probe. With many builds completing against a down remote, the breaker turns
// repeated probe timeouts into immediate "not alive" answers. Scheduling
// itself stays a single unguarded attempt per build.
type BreakerInstance struct {
	inner   Instance
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerInstance wraps inst with a liveness circuit breaker.
func NewBreakerInstance(inst Instance, settings BreakerSettings) *BreakerInstance {
	if settings.FailThreshold == 0 {
		settings.FailThreshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &BreakerInstance{
		inner: inst,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "rundeck-liveness",
			Timeout: settings.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.FailThreshold
			},
		}),
	}
}

// IsConfigurationValid delegates to the wrapped instance.
func (b *BreakerInstance) IsConfigurationValid() bool {
	return b.inner.IsConfigurationValid()
}

// IsAlive probes through the breaker. An open breaker answers false without
// touching the network.
func (b *BreakerInstance) IsAlive(ctx context.Context) bool {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		if !b.inner.IsAlive(ctx) {
			return nil, fmt.Errorf("liveness probe failed")
		}
		return nil, nil
	})
	return err == nil
}

// IsLoginValid delegates to the wrapped instance.
func (b *BreakerInstance) IsLoginValid(ctx context.Context) bool {
	return b.inner.IsLoginValid(ctx)
}

// ScheduleJobExecution delegates to the wrapped instance unguarded.
func (b *BreakerInstance) ScheduleJobExecution(ctx context.Context, groupPath, jobName string, opts *options.Map) (string, error) {
	return b.inner.ScheduleJobExecution(ctx, groupPath, jobName, opts)
}
