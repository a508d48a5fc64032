package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `server:
  addr: ":3000"
  apiKey: "secret"
store:
  backend: sqlite
  path: deckhand.db
notifiers:
  default:
    groupPath: deploy
    jobName: web-app
    tag: "#deploy"
    failBuildOnError: true
alerts:
  - type: console
`
	err := os.WriteFile(filepath.Join(dir, "deckhand.yaml"), []byte(content), 0o644)
	require.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, types.StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "remote.yaml"), cfg.RemoteFile)

	n, ok := cfg.Notifier("")
	require.True(t, ok)
	assert.Equal(t, "deploy/web-app", n.JobRef())
	assert.Equal(t, "#deploy", n.Tag)
	assert.True(t, n.FailBuildOnError)
	assert.Len(t, cfg.Alerts, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "deckhand.yaml"), []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = Load(dir)
	assert.Error(t, err)
}

func TestValidation_MissingNotifiers(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "deckhand.yaml"), []byte("server:\n  addr: \":8080\"\n"), 0o644)
	require.NoError(t, err)

	_, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one notifier")
}

func TestValidation_NotifierRequiresJobName(t *testing.T) {
	dir := t.TempDir()
	content := `notifiers:
  default:
    groupPath: deploy
`
	err := os.WriteFile(filepath.Join(dir, "deckhand.yaml"), []byte(content), 0o644)
	require.NoError(t, err)

	_, err = Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobName is required")
}

func TestValidation_AlertSinks(t *testing.T) {
	tests := []struct {
		name    string
		alerts  string
		wantErr string
	}{
		{"webhook without url", "  - type: webhook\n", "webhook url is required"},
		{"file without path", "  - type: file\n", "file path is required"},
		{"sns without arn", "  - type: sns\n", "topicArn is required"},
		{"unknown type", "  - type: pager\n", "unknown alert type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			content := "notifiers:\n  default:\n    jobName: job\nalerts:\n" + tt.alerts
			require.NoError(t, os.WriteFile(filepath.Join(dir, "deckhand.yaml"), []byte(content), 0o644))

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRemoteLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remote.yaml")

	// Missing file reads as a zero (unconfigured) remote.
	rc, err := LoadRemote(path)
	require.NoError(t, err)
	assert.Empty(t, rc.URL)

	want := types.RemoteConfig{URL: "http://rundeck.example:4440", Login: "admin", Password: "admin"}
	require.NoError(t, SaveRemote(path, want))

	got, err := LoadRemote(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveRemote_Validation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remote.yaml")

	err := SaveRemote(path, types.RemoteConfig{Login: "admin", Password: "admin"})
	require.Error(t, err)

	err = SaveRemote(path, types.RemoteConfig{URL: "not a url", Login: "admin", Password: "admin"})
	require.Error(t, err)

	err = SaveRemote(path, types.RemoteConfig{URL: "http://rundeck.example", Login: "admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required")
}

func TestHandle(t *testing.T) {
	h := NewHandle(types.RemoteConfig{URL: "http://a"})
	assert.Equal(t, "http://a", h.Get().URL)

	h.Set(types.RemoteConfig{URL: "http://b", Login: "admin", Password: "pw"})
	assert.Equal(t, "http://b", h.Get().URL)
	assert.Equal(t, "admin", h.Get().Login)
}
