package cache

import (
	"database/sql"
	"fmt"
	"time"
)

// record is the storage shape shared by all child entity families.
type record struct {
	id        string
	projectID string
	updatedAt time.Time
	data      []byte
}

// putChild upserts one child record, enforcing that the parent project exists
// at time of write.
func (s *Store) putChild(table string, rec record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	if err := projectExistsTx(tx, rec.projectID); err != nil {
		return err
	}

	_, err = tx.Exec(fmt.Sprintf(`
		INSERT INTO %s (id, project_id, updated_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			updated_at = excluded.updated_at,
			data = excluded.data`, table),
		rec.id, rec.projectID, rec.updatedAt.UTC().Format(time.RFC3339Nano), string(rec.data))
	if err != nil {
		return fmt.Errorf("put %s record: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

// replaceChildren clears the family for one project and inserts the given
// records in a single transaction. This is the reconciler's clear-then-insert
// rewrite; remote-assigned ids are preserved verbatim.
func (s *Store) replaceChildren(table, projectID string, recs []record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if err := projectExistsTx(tx, projectID); err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", table), projectID); err != nil {
		return fmt.Errorf("clear %s for project %s: %w", table, projectID, err)
	}

	for _, rec := range recs {
		_, err := tx.Exec(fmt.Sprintf(
			"INSERT INTO %s (id, project_id, updated_at, data) VALUES (?, ?, ?, ?)", table),
			rec.id, rec.projectID, rec.updatedAt.UTC().Format(time.RFC3339Nano), string(rec.data))
		if err != nil {
			return fmt.Errorf("insert %s record %s: %w", table, rec.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// getData returns the JSON document for one record id.
func (s *Store) getData(table, id string) (string, bool, error) {
	var data string
	err := s.db.QueryRow(fmt.Sprintf("SELECT data FROM %s WHERE id = ?", table), id).Scan(&data)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s record: %w", table, err)
	}
	return data, true, nil
}

// listData returns the JSON documents for all records of one project,
// ordered by insertion id for stable output.
func (s *Store) listData(table, projectID string) ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT data FROM %s WHERE project_id = ? ORDER BY rowid", table), projectID)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", table, err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// deleteChild removes one record by id.
func (s *Store) deleteChild(table, id string) error {
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
		return fmt.Errorf("delete %s record: %w", table, err)
	}
	return nil
}

// countChildren returns the number of records for one project.
func (s *Store) countChildren(table, projectID string) (int, error) {
	var n int
	err := s.db.QueryRow(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE project_id = ?", table), projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s records: %w", table, err)
	}
	return n, nil
}
