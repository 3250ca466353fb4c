package cache

import (
	"encoding/json"
	"fmt"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// PutScenario inserts or replaces one scenario.
func (s *Store) PutScenario(sc *models.Scenario) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	return s.putChild("scenarios", record{
		id:        sc.ID,
		projectID: sc.ProjectID,
		updatedAt: sc.UpdatedAt,
		data:      data,
	})
}

// GetScenario returns the scenario with the given id, or nil when absent.
func (s *Store) GetScenario(id string) (*models.Scenario, error) {
	data, ok, err := s.getData("scenarios", id)
	if err != nil || !ok {
		return nil, err
	}
	var sc models.Scenario
	if err := json.Unmarshal([]byte(data), &sc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario %s: %w", id, err)
	}
	return &sc, nil
}

// ListScenarios returns all scenarios for one project.
func (s *Store) ListScenarios(projectID string) ([]*models.Scenario, error) {
	docs, err := s.listData("scenarios", projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Scenario, 0, len(docs))
	for _, doc := range docs {
		var sc models.Scenario
		if err := json.Unmarshal([]byte(doc), &sc); err != nil {
			return nil, fmt.Errorf("unmarshal scenario: %w", err)
		}
		out = append(out, &sc)
	}
	return out, nil
}

// ReplaceScenarios clears the project's scenarios and writes the given set
// atomically.
func (s *Store) ReplaceScenarios(projectID string, scenarios []*models.Scenario) error {
	recs := make([]record, 0, len(scenarios))
	for _, sc := range scenarios {
		data, err := json.Marshal(sc)
		if err != nil {
			return fmt.Errorf("marshal scenario %s: %w", sc.ID, err)
		}
		recs = append(recs, record{id: sc.ID, projectID: sc.ProjectID, updatedAt: sc.UpdatedAt, data: data})
	}
	return s.replaceChildren("scenarios", projectID, recs)
}

// DeleteScenario removes one scenario by id.
func (s *Store) DeleteScenario(id string) error {
	return s.deleteChild("scenarios", id)
}

// CountScenarios returns the number of scenarios cached for one project.
func (s *Store) CountScenarios(projectID string) (int, error) {
	return s.countChildren("scenarios", projectID)
}
