package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

var _ Store = (*SQLite)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS builds (
	project      TEXT NOT NULL,
	number       INTEGER NOT NULL,
	payload      TEXT NOT NULL,
	recorded_at  DATETIME NOT NULL,
	PRIMARY KEY (project, number)
);

CREATE TABLE IF NOT EXISTS executions (
	id           TEXT PRIMARY KEY,
	project      TEXT NOT NULL,
	build_number INTEGER NOT NULL,
	display_name TEXT NOT NULL,
	icon_ref     TEXT,
	url          TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	UNIQUE (project, build_number)
);
CREATE INDEX IF NOT EXISTS idx_executions_project ON executions (project, build_number);

CREATE TABLE IF NOT EXISTS events (
	id        TEXT PRIMARY KEY,
	project   TEXT NOT NULL,
	build     INTEGER NOT NULL,
	kind      TEXT NOT NULL,
	message   TEXT,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_project ON events (project, timestamp);
`

// SQLite is a file-backed Store for single-host deployments.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite store at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One writer at a time; readers share.
	db.SetMaxOpenConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) PutBuild(ctx context.Context, build types.Build) error {
	payload, err := json.Marshal(build)
	if err != nil {
		return fmt.Errorf("marshal build: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO builds (project, number, payload, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project, number) DO UPDATE SET
			payload     = excluded.payload,
			recorded_at = excluded.recorded_at
	`, build.Project, build.Number, string(payload), time.Now().UTC())
	return err
}

func (s *SQLite) GetBuild(ctx context.Context, project string, number int) (*types.Build, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM builds WHERE project = ? AND number = ?`,
		project, number).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var build types.Build
	if err := json.Unmarshal([]byte(payload), &build); err != nil {
		return nil, fmt.Errorf("unmarshal build: %w", err)
	}
	return &build, nil
}

func (s *SQLite) PutExecution(ctx context.Context, rec types.ExecutionRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, project, build_number, display_name, icon_ref, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project, build_number) DO NOTHING
	`, rec.ID, rec.Project, rec.BuildNumber, rec.DisplayName, rec.IconRef, rec.URL, rec.CreatedAt.UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExecutionExists
	}
	return nil
}

func (s *SQLite) GetExecution(ctx context.Context, project string, number int) (*types.ExecutionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project, build_number, display_name, icon_ref, url, created_at
		FROM executions WHERE project = ? AND build_number = ?
	`, project, number)
	return scanExecution(row)
}

func (s *SQLite) ListExecutions(ctx context.Context, project string, limit int) ([]types.ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project, build_number, display_name, icon_ref, url, created_at
		FROM executions WHERE project = ?
		ORDER BY build_number DESC LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) AppendEvent(ctx context.Context, event types.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, project, build, kind, message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.Project, event.Build, string(event.Kind), event.Message, event.Timestamp.UTC())
	return err
}

func (s *SQLite) ListEvents(ctx context.Context, project string, limit int) ([]types.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project, build, kind, message, timestamp
		FROM events WHERE project = ?
		ORDER BY timestamp DESC LIMIT ?
	`, project, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (*types.ExecutionRecord, error) {
	var rec types.ExecutionRecord
	err := row.Scan(&rec.ID, &rec.Project, &rec.BuildNumber,
		&rec.DisplayName, &rec.IconRef, &rec.URL, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
