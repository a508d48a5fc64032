// Package store defines the storage backend interface for deckhand records.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

// ErrExecutionExists is returned when a build already has an execution badge.
// A build acquires at most one execution reference from this notifier.
var ErrExecutionExists = errors.New("execution record already exists for build")

// Store is the storage backend interface. Backends: in-memory, SQLite,
// Postgres.
type Store interface {
	// Build records, used for upstream-cause resolution in serve mode.
	PutBuild(ctx context.Context, build types.Build) error
	GetBuild(ctx context.Context, project string, number int) (*types.Build, error)

	// Execution badge records. PutExecution fails with ErrExecutionExists
	// if the build already holds one.
	PutExecution(ctx context.Context, rec types.ExecutionRecord) error
	GetExecution(ctx context.Context, project string, number int) (*types.ExecutionRecord, error)
	ListExecutions(ctx context.Context, project string, limit int) ([]types.ExecutionRecord, error)

	// Event log, append-only audit trail of notification decisions.
	AppendEvent(ctx context.Context, event types.Event) error
	ListEvents(ctx context.Context, project string, limit int) ([]types.Event, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend types.StoreBackend `yaml:"backend" json:"backend"`
	Path    string             `yaml:"path,omitempty" json:"path,omitempty"` // sqlite file path
	DSN     string             `yaml:"dsn,omitempty" json:"dsn,omitempty"`   // postgres DSN
}

// Open creates the configured store backend. An empty backend defaults to
// in-memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", types.StoreMemory:
		return NewMemory(), nil
	case types.StoreSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: sqlite path is required")
		}
		return OpenSQLite(cfg.Path)
	case types.StorePostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("store: postgres dsn is required")
		}
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

// UpstreamResolver adapts a Store to the trigger evaluator's upstream lookup.
func UpstreamResolver(s Store) func(ctx context.Context, project string, number int) (*types.Build, bool) {
	return func(ctx context.Context, project string, number int) (*types.Build, bool) {
		b, err := s.GetBuild(ctx, project, number)
		if err != nil || b == nil {
			return nil, false
		}
		return b, true
	}
}
