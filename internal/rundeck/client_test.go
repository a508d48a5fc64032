package rundeck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-ci/deckhand/internal/options"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

func testConfig(url string) types.RemoteConfig {
	return types.RemoteConfig{URL: url, Login: "admin", Password: "secret"}
}

func TestIsConfigurationValid(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.RemoteConfig
		want bool
	}{
		{"complete", types.RemoteConfig{URL: "http://rundeck:4440", Login: "u", Password: "p"}, true},
		{"missing url", types.RemoteConfig{Login: "u", Password: "p"}, false},
		{"missing login", types.RemoteConfig{URL: "http://rundeck:4440", Password: "p"}, false},
		{"missing password", types.RemoteConfig{URL: "http://rundeck:4440", Login: "u"}, false},
		{"bad scheme", types.RemoteConfig{URL: "ftp://rundeck", Login: "u", Password: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewClient(tt.cfg).IsConfigurationValid())
		})
	}
}

func TestIsAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	assert.True(t, c.IsAlive(context.Background()))

	srv.Close()
	assert.False(t, c.IsAlive(context.Background()))
}

func TestScheduleJobExecution_Success(t *testing.T) {
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Location", "/execution/follow/42")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	opts := options.NewMap()
	opts.Set("version", "1.2.3")

	c := NewClient(testConfig(srv.URL))
	url, err := c.ScheduleJobExecution(context.Background(), "deploy", "web-app", opts)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/execution/follow/42", url)
	assert.Equal(t, "deploy", gotForm["groupPath"][0])
	assert.Equal(t, "web-app", gotForm["jobName"][0])
	assert.Equal(t, "1.2.3", gotForm["option.version"][0])
}

func TestScheduleJobExecution_ExecutionURLFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"executionUrl":"/execution/follow/7"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	url, err := c.ScheduleJobExecution(context.Background(), "", "job", options.NewMap())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/execution/follow/7", url)
}

func TestScheduleJobExecution_LoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.ScheduleJobExecution(context.Background(), "g", "job", options.NewMap())
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Contains(t, loginErr.Message, "bad credentials")
}

func TestScheduleJobExecution_SchedulingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "job not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.ScheduleJobExecution(context.Background(), "g", "missing", options.NewMap())
	var schedErr *SchedulingError
	require.ErrorAs(t, err, &schedErr)
	assert.Contains(t, schedErr.Message, "job not found")
}

func TestScheduleJobExecution_MissingExecutionReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.ScheduleJobExecution(context.Background(), "g", "job", options.NewMap())
	var schedErr *SchedulingError
	assert.True(t, errors.As(err, &schedErr))
}

func TestConnectionCheck(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okSrv.Close()

	assert.Equal(t, types.ConnConfigInvalid, ConnectionCheck(context.Background(), nil))
	assert.Equal(t, types.ConnConfigInvalid,
		ConnectionCheck(context.Background(), NewClient(types.RemoteConfig{})))
	assert.Equal(t, types.ConnOK,
		ConnectionCheck(context.Background(), NewClient(testConfig(okSrv.URL))))

	badLogin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/j_security_check" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer badLogin.Close()
	assert.Equal(t, types.ConnLoginInvalid,
		ConnectionCheck(context.Background(), NewClient(testConfig(badLogin.URL))))
}

func TestBreakerInstance_OpensAfterConsecutiveFailures(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1")) // nothing listens here
	b := NewBreakerInstance(c, BreakerSettings{FailThreshold: 2, Cooldown: time.Minute})

	ctx := context.Background()
	assert.False(t, b.IsAlive(ctx))
	assert.False(t, b.IsAlive(ctx))
	// Breaker is now open; this answers without a network attempt.
	assert.False(t, b.IsAlive(ctx))
}

type deadInstance struct {
	probes int
}

func (d *deadInstance) IsConfigurationValid() bool          { return true }
func (d *deadInstance) IsAlive(_ context.Context) bool      { d.probes++; return false }
func (d *deadInstance) IsLoginValid(_ context.Context) bool { return false }
func (d *deadInstance) ScheduleJobExecution(_ context.Context, _, _ string, _ *options.Map) (string, error) {
	return "", &SchedulingError{Message: "unreachable"}
}

func TestBreakerInstance_FailuresAccumulateAcrossRebuiltClients(t *testing.T) {
	// The inner instance is resolved fresh on every call, as serve mode
	// rebuilds the client from the settings handle, yet the breaker's
	// failure count must persist across builds.
	inner := &deadInstance{}
	b := NewBreakerInstance(DynamicInstance(func() Instance { return inner }),
		BreakerSettings{FailThreshold: 2, Cooldown: time.Minute})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		assert.False(t, b.IsAlive(ctx))
	}
	assert.Equal(t, 2, inner.probes)
}
