package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

func TestReadBuildEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	content := `{
  "project": "web-app",
  "number": 7,
  "result": "SUCCESS",
  "changeLog": [{"message": "#deploy ship it", "authorId": "alice"}],
  "env": {"BUILD_VERSION": "1.2.3"}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	build, err := readBuildEvent(path)
	require.NoError(t, err)
	assert.Equal(t, "web-app", build.Project)
	assert.Equal(t, 7, build.Number)
	assert.Equal(t, types.ResultSuccess, build.Result)
	require.Len(t, build.ChangeLog, 1)
	assert.Equal(t, "alice", build.ChangeLog[0].AuthorID)
	assert.Equal(t, "1.2.3", build.Env["BUILD_VERSION"])
}

func TestReadBuildEvent_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err := readBuildEvent(bad)
	assert.Error(t, err)

	incomplete := filepath.Join(dir, "incomplete.json")
	require.NoError(t, os.WriteFile(incomplete, []byte(`{"project": "web-app"}`), 0o644))
	_, err = readBuildEvent(incomplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project and number")

	_, err = readBuildEvent(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRunInit_ScaffoldsLoadableProject(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "my-project")

	require.NoError(t, runInit(project))

	cfg, err := config.Load(project)
	require.NoError(t, err)
	n, ok := cfg.Notifier("")
	require.True(t, ok)
	assert.Equal(t, "deploy/web-app", n.JobRef())
	assert.Equal(t, "#deploy", n.Tag)

	build, err := readBuildEvent(filepath.Join(project, "build-event.json"))
	require.NoError(t, err)
	assert.Equal(t, types.ResultSuccess, build.Result)
}
