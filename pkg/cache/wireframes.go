package cache

import (
	"encoding/json"
	"fmt"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// PutWireframe inserts or replaces one wireframe.
func (s *Store) PutWireframe(w *models.Wireframe) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal wireframe: %w", err)
	}
	return s.putChild("wireframes", record{
		id:        w.ID,
		projectID: w.ProjectID,
		updatedAt: w.UpdatedAt,
		data:      data,
	})
}

// ListWireframes returns all wireframes for one project.
func (s *Store) ListWireframes(projectID string) ([]*models.Wireframe, error) {
	docs, err := s.listData("wireframes", projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Wireframe, 0, len(docs))
	for _, doc := range docs {
		var w models.Wireframe
		if err := json.Unmarshal([]byte(doc), &w); err != nil {
			return nil, fmt.Errorf("unmarshal wireframe: %w", err)
		}
		out = append(out, &w)
	}
	return out, nil
}

// DeleteWireframe removes one wireframe by id.
func (s *Store) DeleteWireframe(id string) error {
	return s.deleteChild("wireframes", id)
}

// CountWireframes returns the number of wireframes cached for one project.
func (s *Store) CountWireframes(projectID string) (int, error) {
	return s.countChildren("wireframes", projectID)
}
