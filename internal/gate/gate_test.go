package gate

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-ci/deckhand/internal/dispatch"
	"github.com/deckhand-ci/deckhand/internal/rundeck"
	"github.com/deckhand-ci/deckhand/internal/store"
	"github.com/deckhand-ci/deckhand/internal/testutil"
	"github.com/deckhand-ci/deckhand/internal/trigger"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

type fixture struct {
	remote   *testutil.FakeRemote
	store    *store.Memory
	gate     *Gate
	deferred *Deferred
	log      *bytes.Buffer
	alerts   []types.Alert
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		remote:   testutil.NewFakeRemote(),
		store:    store.NewMemory(),
		deferred: NewDeferred(),
		log:      &bytes.Buffer{},
	}
	ev := trigger.NewEvaluator(trigger.UpstreamResolverFunc(store.UpstreamResolver(f.store)))
	d := dispatch.New(f.store)
	f.gate = New(func() rundeck.Instance { return f.remote }, ev, d, f.store,
		func(_ context.Context, a types.Alert) { f.alerts = append(f.alerts, a) }, nil)
	return f
}

func (f *fixture) run(build *types.Build, cfg types.NotifierConfig) types.StepResult {
	return f.gate.Run(context.Background(), build, cfg, f.deferred, NewWriterLog(f.log))
}

func successfulBuild() *types.Build {
	return &types.Build{
		Project: "app",
		Number:  12,
		Result:  types.ResultSuccess,
		ChangeLog: []types.ChangeLogEntry{
			{Message: "deploy: release", AuthorID: "alice"},
		},
	}
}

func TestRun_UnsuccessfulBuildNeverTouchesRemote(t *testing.T) {
	f := newFixture(t)
	for _, result := range []types.BuildResult{types.ResultFailure, types.ResultUnstable, types.ResultAborted} {
		b := successfulBuild()
		b.Result = result
		res := f.run(b, types.NotifierConfig{JobName: "job"})
		assert.Equal(t, types.OutcomeSkippedBuildResult, res.Outcome.Kind)
		assert.True(t, res.StepOK)
	}
	assert.Equal(t, int64(0), f.remote.ScheduleCalls())
	assert.Equal(t, int64(0), f.remote.AliveCalls())
}

func TestRun_RemoteNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.remote.ConfigValid = false

	res := f.run(successfulBuild(), types.NotifierConfig{JobName: "job", FailBuildOnError: true})
	assert.Equal(t, types.OutcomeSkippedNotConfigured, res.Outcome.Kind)
	assert.False(t, res.StepOK)
	assert.Contains(t, f.log.String(), "configuration is not valid")
	assert.Len(t, f.alerts, 1)
}

func TestRun_NilRemote(t *testing.T) {
	f := newFixture(t)
	f.gate.remote = func() rundeck.Instance { return nil }

	res := f.run(successfulBuild(), types.NotifierConfig{JobName: "job", FailBuildOnError: true})
	assert.Equal(t, types.OutcomeSkippedNotConfigured, res.Outcome.Kind)
	assert.False(t, res.StepOK)
}

func TestRun_RemoteNotAlive(t *testing.T) {
	f := newFixture(t)
	f.remote.Alive = false

	res := f.run(successfulBuild(), types.NotifierConfig{JobName: "job", FailBuildOnError: true})
	assert.Equal(t, types.OutcomeSkippedNotAlive, res.Outcome.Kind)
	assert.False(t, res.StepOK)
	assert.Equal(t, int64(0), f.remote.ScheduleCalls())
}

func TestRun_NotTriggeredIsNeutral(t *testing.T) {
	f := newFixture(t)
	b := successfulBuild()
	b.ChangeLog = []types.ChangeLogEntry{{Message: "fix typo"}}

	res := f.run(b, types.NotifierConfig{JobName: "job", Tag: "deploy"})
	assert.Equal(t, types.OutcomeSkippedNotTriggered, res.Outcome.Kind)
	assert.True(t, res.StepOK)
	assert.Equal(t, int64(0), f.remote.ScheduleCalls())
	assert.Empty(t, f.alerts)
}

func TestRun_TriggeredDispatchesWithResolvedOptions(t *testing.T) {
	f := newFixture(t)
	b := successfulBuild()
	b.Env = map[string]string{"VERSION": "1.2.3"}

	cfg := types.NotifierConfig{
		GroupPath: "deploy",
		JobName:   "web-app",
		Tag:       "deploy",
		Options:   "version=${VERSION}\ntarget=prod",
	}
	res := f.run(b, cfg)
	require.Equal(t, types.OutcomeSuccess, res.Outcome.Kind)
	assert.True(t, res.StepOK)
	assert.Equal(t, int64(1), f.remote.ScheduleCalls())
	assert.Equal(t, "deploy", f.remote.LastGroupPath)
	assert.Equal(t, map[string]string{"version": "1.2.3", "target": "prod"}, f.remote.LastOptions)

	// Exactly one badge with the remote-supplied URL.
	rec, err := f.store.GetExecution(context.Background(), "app", 12)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, f.remote.ExecutionURL, rec.URL)
	assert.Equal(t, types.ExecutionBadgeName, rec.DisplayName)
}

func TestRun_MalformedOptionsMakeZeroRemoteCalls(t *testing.T) {
	f := newFixture(t)
	cfg := types.NotifierConfig{JobName: "job", Options: "not a valid line ===", FailBuildOnError: true}

	res := f.run(successfulBuild(), cfg)
	assert.Equal(t, types.OutcomeOptionsInvalid, res.Outcome.Kind)
	assert.False(t, res.StepOK)
	assert.Equal(t, int64(0), f.remote.ScheduleCalls())
	assert.Contains(t, f.log.String(), "failed to parse options")
}

func TestRun_LoginFailureClassified(t *testing.T) {
	f := newFixture(t)
	f.remote.ScheduleErr = &rundeck.LoginError{Message: "bad credentials"}

	res := f.run(successfulBuild(), types.NotifierConfig{JobName: "job", FailBuildOnError: true})
	assert.Equal(t, types.OutcomeLoginFailed, res.Outcome.Kind)
	assert.False(t, res.StepOK)
	assert.Equal(t, int64(1), f.remote.ScheduleCalls())
}

func TestRun_SchedulingFailureClassified(t *testing.T) {
	f := newFixture(t)
	f.remote.ScheduleErr = &rundeck.SchedulingError{Message: "job not found"}

	res := f.run(successfulBuild(), types.NotifierConfig{JobName: "job", FailBuildOnError: true})
	assert.Equal(t, types.OutcomeSchedulingFailed, res.Outcome.Kind)
	assert.False(t, res.StepOK)
}

func TestRun_FailureDeferredWhenNotFailingBuild(t *testing.T) {
	f := newFixture(t)
	f.remote.ScheduleErr = &rundeck.SchedulingError{Message: "boom"}
	b := successfulBuild()

	res := f.run(b, types.NotifierConfig{JobName: "job", FailBuildOnError: false})

	// The inline phase reports success; the failure surfaces only after
	// the build result is committed.
	assert.True(t, res.StepOK)
	assert.True(t, f.deferred.Pending(b.Key()))

	signals := f.deferred.Finalize(b.Key())
	require.Len(t, signals, 1)
	assert.Equal(t, types.OutcomeSchedulingFailed, signals[0].Kind)
	assert.False(t, f.deferred.Pending(b.Key()))
}

func TestRun_UpstreamTagMatchTriggers(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutBuild(context.Background(), types.Build{
		Project: "lib", Number: 7,
		ChangeLog: []types.ChangeLogEntry{{Message: "deploy the lib", AuthorID: "bob"}},
	}))

	b := successfulBuild()
	b.ChangeLog = []types.ChangeLogEntry{{Message: "bump dependency"}}
	b.Causes = []types.Cause{{Kind: types.CauseUpstream, UpstreamProject: "lib", UpstreamBuild: 7}}

	res := f.run(b, types.NotifierConfig{JobName: "job", Tag: "deploy"})
	assert.Equal(t, types.OutcomeSuccess, res.Outcome.Kind)
}

func TestRun_AppendsAuditEvent(t *testing.T) {
	f := newFixture(t)
	f.run(successfulBuild(), types.NotifierConfig{JobName: "job"})

	events, err := f.store.ListEvents(context.Background(), "app", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.OutcomeSuccess, events[0].Kind)
}
