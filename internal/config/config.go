// Package config handles loading and validation of deckhand.yaml project
// configuration, and the load/save lifecycle of the mutable rundeck
// connection settings in remote.yaml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/deckhand-ci/deckhand/internal/store"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// DefaultNotifierName keys the notifier entry used when a build event does
// not name one.
const DefaultNotifierName = "default"

// App is the top-level deckhand.yaml schema.
type App struct {
	Server    ServerConfig                    `yaml:"server,omitempty"`
	Store     store.Config                    `yaml:"store,omitempty"`
	Notifiers map[string]types.NotifierConfig `yaml:"notifiers"`
	Alerts    []types.AlertConfig             `yaml:"alerts,omitempty"`

	// RemoteFile points at remote.yaml. Relative paths resolve against
	// the directory deckhand.yaml was loaded from.
	RemoteFile string `yaml:"remoteFile,omitempty"`
}

// ServerConfig configures the HTTP event listener.
type ServerConfig struct {
	Addr   string `yaml:"addr,omitempty"`
	APIKey string `yaml:"apiKey,omitempty"`
}

// Notifier returns the named notifier config, falling back to "default".
func (a *App) Notifier(name string) (types.NotifierConfig, bool) {
	if name == "" {
		name = DefaultNotifierName
	}
	cfg, ok := a.Notifiers[name]
	return cfg, ok
}

// Load reads and parses deckhand.yaml from the given directory.
func Load(dir string) (*App, error) {
	path := filepath.Join(dir, "deckhand.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg App
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.RemoteFile == "" {
		cfg.RemoteFile = filepath.Join(dir, "remote.yaml")
	} else if !filepath.IsAbs(cfg.RemoteFile) {
		cfg.RemoteFile = filepath.Join(dir, cfg.RemoteFile)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *App) error {
	if len(cfg.Notifiers) == 0 {
		return fmt.Errorf("at least one notifier is required")
	}
	for name, n := range cfg.Notifiers {
		if n.JobName == "" {
			return fmt.Errorf("notifier %q: jobName is required", name)
		}
	}
	for i, a := range cfg.Alerts {
		switch a.Type {
		case types.AlertConsole:
		case types.AlertWebhook:
			if a.URL == "" {
				return fmt.Errorf("alerts[%d]: webhook url is required", i)
			}
		case types.AlertFile:
			if a.Path == "" {
				return fmt.Errorf("alerts[%d]: file path is required", i)
			}
		case types.AlertSNS:
			if a.TopicARN == "" {
				return fmt.Errorf("alerts[%d]: sns topicArn is required", i)
			}
		default:
			return fmt.Errorf("alerts[%d]: unknown alert type %q", i, a.Type)
		}
	}
	return nil
}

// LoadRemote reads the rundeck connection settings from path. A missing file
// is not an error: it returns a zero config, which the client reports as not
// configured.
func LoadRemote(path string) (types.RemoteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.RemoteConfig{}, nil
		}
		return types.RemoteConfig{}, fmt.Errorf("reading remote config: %w", err)
	}

	var rc types.RemoteConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return types.RemoteConfig{}, fmt.Errorf("parsing remote config: %w", err)
	}
	return rc, nil
}

// SaveRemote writes the rundeck connection settings to path. The write goes
// through a temp file and rename so a concurrent reader never sees a torn
// file.
func SaveRemote(path string, rc types.RemoteConfig) error {
	if err := validateRemote(rc); err != nil {
		return err
	}

	data, err := yaml.Marshal(rc)
	if err != nil {
		return fmt.Errorf("encoding remote config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing remote config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("saving remote config: %w", err)
	}
	return nil
}

func validateRemote(rc types.RemoteConfig) error {
	if rc.URL == "" {
		return fmt.Errorf("remote url is required")
	}
	u, err := url.Parse(rc.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote url %q is not a valid absolute URL", rc.URL)
	}
	if rc.Login == "" {
		return fmt.Errorf("remote login is required")
	}
	if rc.Password == "" {
		return fmt.Errorf("remote password is required")
	}
	return nil
}
