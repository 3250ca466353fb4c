package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// PutProject inserts or replaces a project record.
func (s *Store) PutProject(p *models.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	guest := 0
	if p.IsGuest {
		guest = 1
	}

	_, err = s.db.Exec(`
		INSERT INTO projects (id, owner, is_guest, updated_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			is_guest = excluded.is_guest,
			updated_at = excluded.updated_at,
			data = excluded.data`,
		p.ID, p.Owner, guest, p.UpdatedAt.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("put project: %w", err)
	}
	return nil
}

// GetProject returns the project with the given id, or nil when absent.
func (s *Store) GetProject(id string) (*models.Project, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM projects WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var p models.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal project %s: %w", id, err)
	}
	return &p, nil
}

// ListProjects returns all cached projects.
func (s *Store) ListProjects() ([]*models.Project, error) {
	return s.queryProjects("SELECT data FROM projects ORDER BY updated_at DESC")
}

// ListGuestProjects returns projects flagged as guest-owned, the set eligible
// for purge on login and adoption on migration.
func (s *Store) ListGuestProjects() ([]*models.Project, error) {
	return s.queryProjects("SELECT data FROM projects WHERE is_guest = 1 ORDER BY updated_at DESC")
}

func (s *Store) queryProjects(query string, args ...interface{}) ([]*models.Project, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		var p models.Project
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("unmarshal project: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project together with its stories, wireframes,
// scenarios and sync timestamps, in one transaction.
func (s *Store) DeleteProject(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM scenarios WHERE project_id = ?",
		"DELETE FROM wireframes WHERE project_id = ?",
		"DELETE FROM user_stories WHERE project_id = ?",
		"DELETE FROM sync_state WHERE project_id = ?",
		"DELETE FROM projects WHERE id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete project %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete project: %w", err)
	}
	return nil
}
