package store

import (
	"context"
	"sort"
	"sync"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

// Compile-time interface satisfaction check.
var _ Store = (*Memory)(nil)

// Memory is an in-memory Store used for tests and the default one-shot CLI
// path.
type Memory struct {
	mu         sync.Mutex
	builds     map[string]types.Build
	executions map[string]types.ExecutionRecord
	events     []types.Event
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		builds:     make(map[string]types.Build),
		executions: make(map[string]types.ExecutionRecord),
	}
}

func buildKey(project string, number int) string {
	return types.Build{Project: project, Number: number}.Key()
}

func (m *Memory) PutBuild(_ context.Context, build types.Build) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds[build.Key()] = build
	return nil
}

func (m *Memory) GetBuild(_ context.Context, project string, number int) (*types.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.builds[buildKey(project, number)]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *Memory) PutExecution(_ context.Context, rec types.ExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := buildKey(rec.Project, rec.BuildNumber)
	if _, ok := m.executions[key]; ok {
		return ErrExecutionExists
	}
	m.executions[key] = rec
	return nil
}

func (m *Memory) GetExecution(_ context.Context, project string, number int) (*types.ExecutionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.executions[buildKey(project, number)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) ListExecutions(_ context.Context, project string, limit int) ([]types.ExecutionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.ExecutionRecord
	for _, rec := range m.executions {
		if rec.Project == project {
			out = append(out, rec)
		}
	}
	sortExecutions(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) AppendEvent(_ context.Context, event types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) ListEvents(_ context.Context, project string, limit int) ([]types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Event
	// Newest first.
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Project == project {
			out = append(out, m.events[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// sortExecutions orders records newest build first.
func sortExecutions(recs []types.ExecutionRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].BuildNumber > recs[j].BuildNumber
	})
}
