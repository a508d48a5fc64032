// Package types defines the public domain types for the deckhand post-build notifier.
package types

// BuildResult represents the final status of a completed CI build.
type BuildResult string

// BuildResult values mirror the host build system's result classification.
const (
	ResultSuccess  BuildResult = "SUCCESS"
	ResultUnstable BuildResult = "UNSTABLE"
	ResultFailure  BuildResult = "FAILURE"
	ResultAborted  BuildResult = "ABORTED"
)

// CauseKind identifies why a build was started.
type CauseKind string

// CauseKind values enumerate the trigger causes this notifier understands.
// Only upstream causes participate in tag matching; everything else is opaque.
const (
	CauseUpstream CauseKind = "upstream"
	CauseManual   CauseKind = "manual"
	CauseSCM      CauseKind = "scm"
	CauseTimer    CauseKind = "timer"
)

// OutcomeKind classifies the result of a notification attempt.
type OutcomeKind string

// OutcomeKind values. The skipped-* kinds are neutral: the notifier decided
// not to call the remote instance, which is not a step failure unless the
// remote instance itself was the problem.
const (
	OutcomeSuccess              OutcomeKind = "success"
	OutcomeLoginFailed          OutcomeKind = "login-failed"
	OutcomeSchedulingFailed     OutcomeKind = "scheduling-failed"
	OutcomeOptionsInvalid       OutcomeKind = "options-invalid"
	OutcomeSkippedBuildResult   OutcomeKind = "skipped-build-unsuccessful"
	OutcomeSkippedNotConfigured OutcomeKind = "skipped-not-configured"
	OutcomeSkippedNotAlive      OutcomeKind = "skipped-not-alive"
	OutcomeSkippedNotTriggered  OutcomeKind = "skipped-not-triggered"
)

// Neutral reports whether the outcome is a neutral skip that must not fail
// the build step.
func (k OutcomeKind) Neutral() bool {
	return k == OutcomeSuccess || k == OutcomeSkippedBuildResult || k == OutcomeSkippedNotTriggered
}

// ConnectionStatus is the result of the global configuration test operation.
type ConnectionStatus string

// ConnectionStatus values, checked in order: configuration shape, reachability,
// then credentials.
const (
	ConnConfigInvalid ConnectionStatus = "config-invalid"
	ConnNotAlive      ConnectionStatus = "not-alive"
	ConnLoginInvalid  ConnectionStatus = "login-invalid"
	ConnOK            ConnectionStatus = "ok"
)

// AlertType defines the alert sink type.
type AlertType string

// AlertType values enumerate the supported alert sink backends.
const (
	AlertConsole AlertType = "console"
	AlertWebhook AlertType = "webhook"
	AlertFile    AlertType = "file"
	AlertSNS     AlertType = "sns"
)

// AlertLevel classifies alert severity.
type AlertLevel string

const (
	AlertLevelError   AlertLevel = "error"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelInfo    AlertLevel = "info"
)

// StoreBackend identifies the storage backend for execution and build records.
type StoreBackend string

// StoreBackend values enumerate the supported store backends.
const (
	StoreMemory   StoreBackend = "memory"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)
