// Package commands implements the CLI subcommands for the deckhand binary.
package commands

import (
	"context"
	"fmt"

	"github.com/deckhand-ci/deckhand/internal/alert"
	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/internal/dispatch"
	"github.com/deckhand-ci/deckhand/internal/gate"
	"github.com/deckhand-ci/deckhand/internal/observe"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/internal/store"
	"github.com/deckhand-ci/deckhand/internal/trigger"
)

// app bundles the wired runtime pieces shared by the subcommands.
type app struct {
	cfg      *config.App
	handle   *config.Handle
	store    store.Store
	gate     *gate.Gate
	deferred *gate.Deferred
}

// buildApp loads deckhand.yaml and remote.yaml from the working directory and
// wires the store, evaluator, dispatcher, and alert sinks together.
func buildApp(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	rc, err := config.LoadRemote(cfg.RemoteFile)
	if err != nil {
		return nil, nil, err
	}
	handle := config.NewHandle(rc)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() { _ = st.Close() }

	alerts, err := alert.NewDispatcher(cfg.Alerts)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating alert dispatcher: %w", err)
	}

	// One breaker instance for the process lifetime so consecutive probe
	// failures accumulate across builds and a dead rundeck host is reported
	// quickly. The inner client is rebuilt per call to pick up settings
	// swapped through the handle.
	shared := rundeck.NewBreakerInstance(rundeck.DynamicInstance(func() rundeck.Instance {
		return rundeck.NewClient(handle.Get())
	}), rundeck.DefaultBreakerSettings())
	remote := func() rundeck.Instance { return shared }

	obs, err := observe.NewMetrics()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating meters: %w", err)
	}

	ev := trigger.NewEvaluator(trigger.UpstreamResolverFunc(store.UpstreamResolver(st)))
	g := gate.New(remote, ev, dispatch.New(st), st, alerts.AlertFunc(), obs)

	return &app{
		cfg:      cfg,
		handle:   handle,
		store:    st,
		gate:     g,
		deferred: gate.NewDeferred(),
	}, cleanup, nil
}
