// Package gate orchestrates the post-build notification decision chain.
package gate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/deckhand-ci/deckhand/internal/dispatch"
	"github.com/deckhand-ci/deckhand/internal/metrics"
	"github.com/deckhand-ci/deckhand/internal/observe"
	"github.com/deckhand-ci/deckhand/internal/options"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/internal/store"
	"github.com/deckhand-ci/deckhand/internal/trigger"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// RemoteProvider returns the current remote instance, or nil when none is
// configured. It is called once per build so configuration swaps take effect
// between builds, never mid-flight.
type RemoteProvider func() rundeck.Instance

// Gate runs the state machine around one build completion: build outcome
// check, remote health, trigger evaluation, option resolution, dispatch.
type Gate struct {
	remote     RemoteProvider
	evaluator  *trigger.Evaluator
	dispatcher *dispatch.Dispatcher
	store      store.Store
	alertFn    func(context.Context, types.Alert)
	obs        *observe.Metrics
	logger     *slog.Logger
}

// New creates a Gate. alertFn may be nil.
func New(remote RemoteProvider, ev *trigger.Evaluator, d *dispatch.Dispatcher, s store.Store,
	alertFn func(context.Context, types.Alert), obs *observe.Metrics) *Gate {
	return &Gate{
		remote:     remote,
		evaluator:  ev,
		dispatcher: d,
		store:      s,
		alertFn:    alertFn,
		obs:        obs,
		logger:     slog.Default(),
	}
}

// Run drives the notification state machine for one completed build and
// returns the step result. StepOK=false is reported immediately only when
// cfg.FailBuildOnError is set; otherwise the failure signal is handed to the
// Deferred queue and applied after the build result is final.
func (g *Gate) Run(ctx context.Context, build *types.Build, cfg types.NotifierConfig,
	deferred *Deferred, log types.BuildLog) types.StepResult {

	metrics.BuildsProcessed.Add(1)
	if g.obs != nil {
		g.obs.BuildsGated.Add(ctx, 1)
	}

	outcome := g.decide(ctx, build, cfg, log)
	g.record(ctx, build, outcome)

	res := types.StepResult{Outcome: outcome, StepOK: true}
	if outcome.Kind.Neutral() {
		return res
	}

	g.fireAlert(ctx, types.Alert{
		Level:     types.AlertLevelError,
		Project:   build.Project,
		Build:     build.Number,
		Message:   fmt.Sprintf("rundeck notification failed for %s: %s: %s", build.Key(), outcome.Kind, outcome.Message),
		Timestamp: time.Now(),
	})

	if cfg.FailBuildOnError {
		res.StepOK = false
		return res
	}

	// The step's own failure must not retroactively change the build's
	// result; it is applied in the post-finalization phase.
	if deferred != nil {
		deferred.Record(build.Key(), outcome)
		log.Printf("notification failed; failure signal deferred until build %s is finalized", build.Key())
	}
	return res
}

// decide walks the terminal-early-return state chain.
func (g *Gate) decide(ctx context.Context, build *types.Build, cfg types.NotifierConfig,
	log types.BuildLog) types.Outcome {

	if build.Result != types.ResultSuccess {
		metrics.NotificationsSkipped.Add(1)
		log.Printf("build is %s, not notifying rundeck", build.Result)
		return types.Outcome{Kind: types.OutcomeSkippedBuildResult,
			Message: fmt.Sprintf("build result is %s", build.Result)}
	}

	remote := g.remote()
	if remote == nil || !remote.IsConfigurationValid() {
		metrics.NotificationsSkipped.Add(1)
		log.Printf("rundeck configuration is not valid")
		return types.Outcome{Kind: types.OutcomeSkippedNotConfigured,
			Message: "rundeck configuration is not valid"}
	}

	if !remote.IsAlive(ctx) {
		metrics.NotificationsSkipped.Add(1)
		log.Printf("rundeck instance is not running")
		return types.Outcome{Kind: types.OutcomeSkippedNotAlive,
			Message: "rundeck instance is not running"}
	}

	notify, reason := g.evaluator.ShouldNotify(ctx, build, cfg.Tag)
	if !notify {
		metrics.NotificationsSkipped.Add(1)
		log.Printf("%s, not notifying rundeck", reason)
		return types.Outcome{Kind: types.OutcomeSkippedNotTriggered, Message: reason}
	}
	metrics.NotificationsTriggered.Add(1)
	log.Printf("%s, notifying rundeck", reason)

	opts := g.resolveOptions(cfg.Options, build.Env, log)

	start := time.Now()
	outcome := g.dispatcher.Dispatch(ctx, remote, build, cfg, opts, log)
	if g.obs != nil {
		g.obs.DispatchDuration.Record(ctx, time.Since(start).Seconds())
	}
	return outcome
}

// resolveOptions expands placeholders and parses the options blob. Unresolved
// tokens are logged but non-fatal; a parse failure yields the nil sentinel.
func (g *Gate) resolveOptions(raw string, env map[string]string, log types.BuildLog) *options.Map {
	if strings.TrimSpace(raw) == "" {
		return options.NewMap()
	}
	expanded, unresolved := options.Expand(raw, env)
	if len(unresolved) > 0 {
		log.Printf("could not resolve environment tokens: %s", strings.Join(unresolved, ", "))
	}
	opts, err := options.Parse(expanded)
	if err != nil {
		log.Printf("failed to parse options: %v", err)
		return nil
	}
	return opts
}

// record appends the outcome to the audit event log. Best-effort: a storage
// failure is logged, not surfaced, so it cannot change the step result.
func (g *Gate) record(ctx context.Context, build *types.Build, outcome types.Outcome) {
	if g.obs != nil {
		g.obs.RecordOutcome(ctx, string(outcome.Kind))
	}
	if g.store == nil {
		return
	}
	ev := types.Event{
		ID:        ulid.Make().String(),
		Project:   build.Project,
		Build:     build.Number,
		Kind:      outcome.Kind,
		Message:   outcome.Message,
		Timestamp: time.Now().UTC(),
	}
	if err := g.store.AppendEvent(ctx, ev); err != nil {
		g.logger.Warn("failed to append audit event", "build", build.Key(), "error", err)
	}
}

func (g *Gate) fireAlert(ctx context.Context, alert types.Alert) {
	if g.alertFn != nil {
		g.alertFn(ctx, alert)
	}
}

// WriterLog adapts an io.Writer to the BuildLog interface, one line per call.
type WriterLog struct {
	w io.Writer
}

// NewWriterLog creates a BuildLog writing to w.
func NewWriterLog(w io.Writer) *WriterLog {
	return &WriterLog{w: w}
}

// Printf writes one formatted line.
func (l *WriterLog) Printf(format string, args ...any) {
	fmt.Fprintf(l.w, format+"\n", args...)
}
