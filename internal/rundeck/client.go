package rundeck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deckhand-ci/deckhand/internal/options"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

const defaultClientTimeout = 30 * time.Second

// Client is the HTTP implementation of Instance. One Client wraps one
// RemoteConfig snapshot; configuration updates produce a new Client.
type Client struct {
	cfg        types.RemoteConfig
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// NewClient creates a Client for the given remote configuration.
func NewClient(cfg types.RemoteConfig, opts ...ClientOption) *Client {
	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: defaultClientTimeout,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the configured base URL.
func (c *Client) URL() string { return c.baseURL }

// String identifies the instance in log messages without leaking credentials.
func (c *Client) String() string {
	return fmt.Sprintf("rundeck instance %s (login %s)", c.baseURL, c.cfg.Login)
}

// IsConfigurationValid checks that url, login and password are present and
// that the URL parses.
func (c *Client) IsConfigurationValid() bool {
	if c.cfg.URL == "" || c.cfg.Login == "" || c.cfg.Password == "" {
		return false
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsAlive probes the base URL. Any response the server manages to send back
// counts as alive; only transport failures mean the instance is down.
func (c *Client) IsAlive(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < http.StatusInternalServerError
}

// IsLoginValid probes the credentials via the login endpoint.
func (c *Client) IsLoginValid(ctx context.Context) bool {
	return c.login(ctx) == nil
}

// login posts the credential form. RunDeck answers 401/403 or a redirect to
// the login error page on bad credentials.
func (c *Client) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("j_username", c.cfg.Login)
	form.Set("j_password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/j_security_check", strings.NewReader(form.Encode()))
	if err != nil {
		return &LoginError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &LoginError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &LoginError{Message: fmt.Sprintf("credentials rejected for user %s (status %d)", c.cfg.Login, resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return &LoginError{Message: fmt.Sprintf("login endpoint returned status %d", resp.StatusCode)}
	}
	// The final URL after redirects reveals a form-auth failure.
	if resp.Request != nil && strings.Contains(resp.Request.URL.Path, "/user/error") {
		return &LoginError{Message: fmt.Sprintf("credentials rejected for user %s", c.cfg.Login)}
	}
	return nil
}

// ScheduleJobExecution schedules one execution of groupPath/jobName with the
// given options. A single attempt; no retries at this layer.
func (c *Client) ScheduleJobExecution(ctx context.Context, groupPath, jobName string, opts *options.Map) (string, error) {
	if jobName == "" {
		return "", &SchedulingError{Message: "job name is required"}
	}

	form := url.Values{}
	form.Set("groupPath", groupPath)
	form.Set("jobName", jobName)
	if opts != nil {
		for _, k := range opts.Keys() {
			v, _ := opts.Get(k)
			form.Set("option."+k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/scheduler/runJobByName", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &SchedulingError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.Login, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &SchedulingError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &SchedulingError{Message: fmt.Sprintf("reading response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &LoginError{Message: remoteMessage(resp.StatusCode, body)}
	case resp.StatusCode >= 400:
		return "", &SchedulingError{Message: remoteMessage(resp.StatusCode, body)}
	}

	execURL := c.executionURL(resp.Header.Get("Location"), body)
	if execURL == "" {
		return "", &SchedulingError{Message: "response carried no execution reference"}
	}
	return execURL, nil
}

// executionURL extracts the execution reference from the Location header,
// falling back to an executionUrl field in a JSON body.
func (c *Client) executionURL(location string, body []byte) string {
	if location != "" {
		if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
			return location
		}
		return c.baseURL + "/" + strings.TrimLeft(location, "/")
	}
	var payload struct {
		ExecutionURL string `json:"executionUrl"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.ExecutionURL != "" {
		if strings.HasPrefix(payload.ExecutionURL, "http") {
			return payload.ExecutionURL
		}
		return c.baseURL + "/" + strings.TrimLeft(payload.ExecutionURL, "/")
	}
	return ""
}

// remoteMessage prefers the remote-supplied body text over a bare status code.
func remoteMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 300 {
		text = text[:300]
	}
	if text == "" {
		return fmt.Sprintf("remote returned status %d", status)
	}
	return fmt.Sprintf("remote returned status %d: %s", status, text)
}
