// Package observe holds OpenTelemetry metric instruments for the notifier.
package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "deckhand"

// Metrics holds all deckhand metric instruments. Without an SDK installed the
// global meter is a no-op, so recording is always safe.
type Metrics struct {
	BuildsGated      metric.Int64Counter
	Notifications    metric.Int64Counter
	DispatchDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.BuildsGated, err = meter.Int64Counter("deckhand.builds.gated",
		metric.WithDescription("Number of completed builds run through the gate"))
	if err != nil {
		return nil, err
	}

	m.Notifications, err = meter.Int64Counter("deckhand.notifications",
		metric.WithDescription("Number of notification outcomes by kind"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("deckhand.dispatch.duration_seconds",
		metric.WithDescription("Remote dispatch duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOutcome counts one notification outcome.
func (m *Metrics) RecordOutcome(ctx context.Context, kind string) {
	if m == nil || m.Notifications == nil {
		return
	}
	m.Notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
