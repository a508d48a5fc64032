package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

var _ Store = (*Postgres)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS builds (
	project     TEXT NOT NULL,
	number      INTEGER NOT NULL,
	payload     JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (project, number)
);

CREATE TABLE IF NOT EXISTS executions (
	id           TEXT PRIMARY KEY,
	project      TEXT NOT NULL,
	build_number INTEGER NOT NULL,
	display_name TEXT NOT NULL,
	icon_ref     TEXT,
	url          TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (project, build_number)
);
CREATE INDEX IF NOT EXISTS idx_executions_project ON executions (project, build_number DESC);

CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	project   TEXT NOT NULL,
	build     INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	message   TEXT,
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_project_ts ON events (project, timestamp DESC);
`

// Postgres is a durable Store for shared deployments.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies the connection and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) PutBuild(ctx context.Context, build types.Build) error {
	payload, err := json.Marshal(build)
	if err != nil {
		return fmt.Errorf("marshal build: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO builds (project, number, payload, recorded_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (project, number) DO UPDATE SET
			payload     = EXCLUDED.payload,
			recorded_at = NOW()
	`, build.Project, build.Number, payload)
	return err
}

func (p *Postgres) GetBuild(ctx context.Context, project string, number int) (*types.Build, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM builds WHERE project = $1 AND number = $2`,
		project, number).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var build types.Build
	if err := json.Unmarshal(payload, &build); err != nil {
		return nil, fmt.Errorf("unmarshal build: %w", err)
	}
	return &build, nil
}

func (p *Postgres) PutExecution(ctx context.Context, rec types.ExecutionRecord) error {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO executions (id, project, build_number, display_name, icon_ref, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project, build_number) DO NOTHING
	`, rec.ID, rec.Project, rec.BuildNumber, rec.DisplayName, rec.IconRef, rec.URL, rec.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExecutionExists
	}
	return nil
}

func (p *Postgres) GetExecution(ctx context.Context, project string, number int) (*types.ExecutionRecord, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, project, build_number, display_name, icon_ref, url, created_at
		FROM executions WHERE project = $1 AND build_number = $2
	`, project, number)

	var rec types.ExecutionRecord
	err := row.Scan(&rec.ID, &rec.Project, &rec.BuildNumber,
		&rec.DisplayName, &rec.IconRef, &rec.URL, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Postgres) ListExecutions(ctx context.Context, project string, limit int) ([]types.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, project, build_number, display_name, icon_ref, url, created_at
		FROM executions WHERE project = $1
		ORDER BY build_number DESC LIMIT $2
	`, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ExecutionRecord
	for rows.Next() {
		var rec types.ExecutionRecord
		if err := rows.Scan(&rec.ID, &rec.Project, &rec.BuildNumber,
			&rec.DisplayName, &rec.IconRef, &rec.URL, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) AppendEvent(ctx context.Context, event types.Event) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO events (id, project, build, kind, message, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.Project, event.Build, string(event.Kind), event.Message, event.Timestamp)
	return err
}

func (p *Postgres) ListEvents(ctx context.Context, project string, limit int) ([]types.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id, project, build, kind, message, timestamp
		FROM events WHERE project = $1
		ORDER BY timestamp DESC LIMIT $2
	`, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var ev types.Event
		var kind string
		if err := rows.Scan(&ev.ID, &ev.Project, &ev.Build, &kind, &ev.Message, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Kind = types.OutcomeKind(kind)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
