// Package cache is the durable, process-local store of cached records.
//
// One collection per entity family, each record addressable by id and
// filterable by parent project id, plus per-project sync timestamps and the
// persisted session credentials. Records are stored as camelCase JSON
// documents; the snake_case remote boundary is handled by the gateway.
//
// The cache is mutated only by the reconciler, the migration coordinator and
// the generation facade's persistence step.
package cache

import (
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store is the SQLite-backed local cache.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id         TEXT PRIMARY KEY,
    owner      TEXT NOT NULL DEFAULT '',
    is_guest   INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL,
    data       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_stories (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stories_project ON user_stories(project_id);

CREATE TABLE IF NOT EXISTS wireframes (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wireframes_project ON wireframes(project_id);

CREATE TABLE IF NOT EXISTS scenarios (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scenarios_project ON scenarios(project_id);

CREATE TABLE IF NOT EXISTS sync_state (
    project_id TEXT NOT NULL,
    family     TEXT NOT NULL,
    synced_at  TEXT NOT NULL,
    PRIMARY KEY (project_id, family)
);

CREATE TABLE IF NOT EXISTS credentials (
    singleton  INTEGER PRIMARY KEY CHECK (singleton = 1),
    data       TEXT NOT NULL
);
`

// Open opens (creating if needed) the cache database at path and initializes
// the schema. Pass ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	dsn := "file:" + path
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// A single writer keeps clear-then-insert rewrites atomic without
	// busy-retry loops.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PurgeAll deletes every cached record, credential and sync timestamp.
// Used at the logout boundary.
func (s *Store) PurgeAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"scenarios", "wireframes", "user_stories", "projects", "sync_state", "credentials"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit purge: %w", err)
	}
	return nil
}

// projectExistsTx enforces the parent-project invariant inside a write
// transaction.
func projectExistsTx(tx *sql.Tx, projectID string) error {
	var one int
	err := tx.QueryRow("SELECT 1 FROM projects WHERE id = ?", projectID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("project %s does not exist in local cache", projectID)
	}
	if err != nil {
		return fmt.Errorf("check project existence: %w", err)
	}
	return nil
}
