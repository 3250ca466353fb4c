package cache

import (
	"encoding/json"
	"fmt"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// PutStory inserts or replaces one user story.
func (s *Store) PutStory(st *models.UserStory) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal story: %w", err)
	}
	return s.putChild("user_stories", record{
		id:        st.ID,
		projectID: st.ProjectID,
		updatedAt: st.UpdatedAt,
		data:      data,
	})
}

// GetStory returns the story with the given id, or nil when absent.
func (s *Store) GetStory(id string) (*models.UserStory, error) {
	data, ok, err := s.getData("user_stories", id)
	if err != nil || !ok {
		return nil, err
	}
	var st models.UserStory
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("unmarshal story %s: %w", id, err)
	}
	return &st, nil
}

// ListStories returns all user stories for one project.
func (s *Store) ListStories(projectID string) ([]*models.UserStory, error) {
	docs, err := s.listData("user_stories", projectID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserStory, 0, len(docs))
	for _, doc := range docs {
		var st models.UserStory
		if err := json.Unmarshal([]byte(doc), &st); err != nil {
			return nil, fmt.Errorf("unmarshal story: %w", err)
		}
		out = append(out, &st)
	}
	return out, nil
}

// ReplaceStories clears the project's stories and writes the given set
// atomically.
func (s *Store) ReplaceStories(projectID string, stories []*models.UserStory) error {
	recs := make([]record, 0, len(stories))
	for _, st := range stories {
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal story %s: %w", st.ID, err)
		}
		recs = append(recs, record{id: st.ID, projectID: st.ProjectID, updatedAt: st.UpdatedAt, data: data})
	}
	return s.replaceChildren("user_stories", projectID, recs)
}

// DeleteStory removes one story by id.
func (s *Store) DeleteStory(id string) error {
	return s.deleteChild("user_stories", id)
}

// CountStories returns the number of stories cached for one project.
func (s *Store) CountStories(projectID string) (int, error) {
	return s.countChildren("user_stories", projectID)
}
