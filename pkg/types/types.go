package types

import (
	"fmt"
	"time"
)

// ExecutionBadgeName is the display name attached to every persisted
// execution record.
const ExecutionBadgeName = "RunDeck Execution Result"

// DefaultExecutionIcon is the icon reference recorded on execution badges.
const DefaultExecutionIcon = "rundeck_24x24.png"

// NotifierConfig is the per-build-step notification configuration. It is
// immutable once constructed; the host creates one at configuration time and
// reads it at each build completion.
type NotifierConfig struct {
	GroupPath        string `yaml:"groupPath" json:"groupPath"`
	JobName          string `yaml:"jobName" json:"jobName"`
	Options          string `yaml:"options,omitempty" json:"options,omitempty"`
	Tag              string `yaml:"tag,omitempty" json:"tag,omitempty"`
	FailBuildOnError bool   `yaml:"failBuildOnError,omitempty" json:"failBuildOnError,omitempty"`
}

// JobRef renders the remote job reference for log messages.
func (c NotifierConfig) JobRef() string {
	if c.GroupPath == "" {
		return c.JobName
	}
	return c.GroupPath + "/" + c.JobName
}

// RemoteConfig is the process-wide RunDeck instance configuration. It is
// mutated only through the explicit configure/save path and atomically
// swapped for readers.
type RemoteConfig struct {
	URL      string `yaml:"url" json:"url"`
	Login    string `yaml:"login" json:"login"`
	Password string `yaml:"password" json:"password"`
}

// ChangeLogEntry is a read-only view into one commit of a build's change history.
type ChangeLogEntry struct {
	Message  string `yaml:"message" json:"message"`
	AuthorID string `yaml:"authorId,omitempty" json:"authorId,omitempty"`
}

// Cause records why a build was started. UpstreamProject/UpstreamBuild are
// meaningful only when Kind is CauseUpstream.
type Cause struct {
	Kind            CauseKind `yaml:"kind" json:"kind"`
	UpstreamProject string    `yaml:"upstreamProject,omitempty" json:"upstreamProject,omitempty"`
	UpstreamBuild   int       `yaml:"upstreamBuild,omitempty" json:"upstreamBuild,omitempty"`
}

// Build is the completed-build view handed to the gate by the host build
// system. The notifier never mutates it.
type Build struct {
	Project   string            `yaml:"project" json:"project"`
	Number    int               `yaml:"number" json:"number"`
	Result    BuildResult       `yaml:"result" json:"result"`
	ChangeLog []ChangeLogEntry  `yaml:"changeLog,omitempty" json:"changeLog,omitempty"`
	Causes    []Cause           `yaml:"causes,omitempty" json:"causes,omitempty"`
	Env       map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// Key returns the build identity used for deferred-signal bookkeeping and
// at-most-once badge enforcement.
func (b Build) Key() string {
	return fmt.Sprintf("%s#%d", b.Project, b.Number)
}

// Outcome is the tagged result of one notification attempt.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	Message      string      `json:"message,omitempty"`
	ExecutionURL string      `json:"executionUrl,omitempty"`
}

// StepResult is what the gate reports back to the host build step.
type StepResult struct {
	Outcome Outcome `json:"outcome"`
	// StepOK is the immediate boolean step result. When the notifier is
	// configured not to fail the build, a false value is applied only in
	// the deferred phase, after the build result is final.
	StepOK bool `json:"stepOk"`
}

// ExecutionRecord is the persisted badge linking a build to the remote
// execution it scheduled. Created once per successful notification, never
// mutated, lives for the lifetime of the build record.
type ExecutionRecord struct {
	ID          string    `json:"id"`
	Project     string    `json:"project"`
	BuildNumber int       `json:"buildNumber"`
	DisplayName string    `json:"displayName"`
	IconRef     string    `json:"iconRef"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Event is one append-only audit entry describing a notification decision.
type Event struct {
	ID        string      `json:"id"`
	Project   string      `json:"project"`
	Build     int         `json:"build"`
	Kind      OutcomeKind `json:"kind"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Alert is an operator-facing notification about a failed or skipped dispatch.
type Alert struct {
	Level     AlertLevel `json:"level"`
	Project   string     `json:"project,omitempty"`
	Build     int        `json:"build,omitempty"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// BuildLog is the host-provided sink for the human-readable, one-line-per-
// decision audit trail written into the build's own log.
type BuildLog interface {
	Printf(format string, args ...any)
}

// AlertConfig selects and configures one alert sink.
type AlertConfig struct {
	Type     AlertType `yaml:"type" json:"type"`
	URL      string    `yaml:"url,omitempty" json:"url,omitempty"`
	Path     string    `yaml:"path,omitempty" json:"path,omitempty"`
	TopicARN string    `yaml:"topicArn,omitempty" json:"topicArn,omitempty"`
}
