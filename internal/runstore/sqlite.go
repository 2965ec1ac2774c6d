package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teemow/inboxagent/internal/agent"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	node       TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// SQLiteStore is a durable agent.Checkpointer backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the checkpoint database at path and runs
// migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save implements agent.Checkpointer with an upsert.
func (s *SQLiteStore) Save(ctx context.Context, run *agent.Run) error {
	state, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, status, node, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status     = excluded.status,
			node       = excluded.node,
			state      = excluded.state,
			updated_at = excluded.updated_at`,
		run.ID, string(run.Status), string(run.Node), string(state),
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}
	return nil
}

// Load implements agent.Checkpointer.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*agent.Run, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM runs WHERE id = ?`, id).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, agent.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", id, err)
	}
	var run agent.Run
	if err := json.Unmarshal([]byte(state), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

// List implements agent.Checkpointer, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*agent.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM runs ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*agent.Run
	for rows.Next() {
		var state string
		if err := rows.Scan(&state); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run agent.Run
		if err := json.Unmarshal([]byte(state), &run); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
