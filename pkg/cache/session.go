package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// SaveCredentials persists the session credentials, replacing any previous
// ones. There is at most one session per device.
func (s *Store) SaveCredentials(c *models.Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO credentials (singleton, data) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET data = excluded.data`, string(data))
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// LoadCredentials returns the persisted credentials, or nil when the session
// is anonymous.
func (s *Store) LoadCredentials() (*models.Credentials, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM credentials WHERE singleton = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	var c models.Credentials
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &c, nil
}

// ClearCredentials removes the persisted session identity.
func (s *Store) ClearCredentials() error {
	if _, err := s.db.Exec("DELETE FROM credentials"); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// SetSyncedAt records the last successful sync of one entity family for one
// project.
func (s *Store) SetSyncedAt(projectID, family string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (project_id, family, synced_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id, family) DO UPDATE SET synced_at = excluded.synced_at`,
		projectID, family, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("set sync timestamp: %w", err)
	}
	return nil
}

// SyncedAt returns the last successful sync time for one project and family,
// or the zero time when the family has never synced.
func (s *Store) SyncedAt(projectID, family string) (time.Time, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT synced_at FROM sync_state WHERE project_id = ? AND family = ?",
		projectID, family).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get sync timestamp: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sync timestamp: %w", err)
	}
	return t, nil
}
