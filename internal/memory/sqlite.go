package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS preferences (
	namespace  TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// SQLiteBacking stores preference profiles in a SQLite database.
type SQLiteBacking struct {
	db *sql.DB
}

// NewSQLiteBacking opens (or creates) the database at path and runs
// migrations.
func NewSQLiteBacking(path string) (*SQLiteBacking, error) {
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
	return &SQLiteBacking{db: db}, nil
}

// Close closes the underlying database connection.
func (b *SQLiteBacking) Close() error {
	return b.db.Close()
}

// Load implements Backing.
func (b *SQLiteBacking) Load(ctx context.Context, key string) (string, bool, error) {
	var content string
	err := b.db.QueryRowContext(ctx,
		`SELECT content FROM preferences WHERE namespace = ?`, key).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query preferences: %w", err)
	}
	return content, true, nil
}

// Save implements Backing with an upsert.
func (b *SQLiteBacking) Save(ctx context.Context, key, content string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO preferences (namespace, content, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			content    = excluded.content,
			updated_at = excluded.updated_at`,
		key, content, now)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// List implements Backing.
func (b *SQLiteBacking) List(ctx context.Context) (map[string]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT namespace, content FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, content string
		if err := rows.Scan(&key, &content); err != nil {
			return nil, fmt.Errorf("scan preferences: %w", err)
		}
		out[key] = content
	}
	return out, rows.Err()
}
