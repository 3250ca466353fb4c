package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// StorySet is the canonical result of story-bearing responses.
type StorySet struct {
	Stories []*models.UserStory
	Count   int
}

// normalizeStories maps the known story response shapes into a StorySet:
// top-level "user_stories", top-level "stories", a bare "data" array, or
// "data" wrapping either key.
func normalizeStories(body []byte) (*StorySet, error) {
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	var envelope struct {
		UserStories json.RawMessage `json:"user_stories"`
		Stories     json.RawMessage `json:"stories"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", apperrors.ErrValidation, err)
	}

	list := envelope.UserStories
	if list == nil {
		list = envelope.Stories
	}
	if list == nil && len(envelope.Data) > 0 {
		if envelope.Data[0] == '[' {
			list = envelope.Data
		} else {
			var nested struct {
				UserStories json.RawMessage `json:"user_stories"`
				Stories     json.RawMessage `json:"stories"`
			}
			if err := json.Unmarshal(envelope.Data, &nested); err != nil {
				return nil, fmt.Errorf("%w: malformed data payload: %v", apperrors.ErrValidation, err)
			}
			list = nested.UserStories
			if list == nil {
				list = nested.Stories
			}
		}
	}
	if list == nil {
		return nil, fmt.Errorf("%w: no story list in response", apperrors.ErrValidation)
	}

	set := &StorySet{}
	if err := decodeCamel(list, &set.Stories); err != nil {
		return nil, err
	}
	set.Count = len(set.Stories)
	return set, nil
}

// ListStories fetches all user stories for a project. A missing project is
// zero remote records.
func (c *Client) ListStories(ctx context.Context, projectID string) (*StorySet, error) {
	body, err := c.do(ctx, http.MethodGet, nil, "projects", projectID, "user-stories")
	if errors.Is(err, apperrors.ErrNotFound) {
		return &StorySet{}, nil
	}
	if err != nil {
		return nil, err
	}
	return normalizeStories(body)
}

// BulkSyncStories ships the local story set to the bulk-sync endpoint and
// returns the authoritative merged set.
func (c *Client) BulkSyncStories(ctx context.Context, projectID string, local []*models.UserStory) ([]*models.UserStory, error) {
	outbound, err := encodeSnake(local)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost,
		map[string]interface{}{"local_stories": outbound},
		"projects", projectID, "sync-user-stories")
	if err != nil {
		return nil, err
	}
	set, err := normalizeStories(body)
	if err != nil {
		return nil, err
	}
	return set.Stories, nil
}

// CreateStory creates one user story remotely and returns the stored record.
func (c *Client) CreateStory(ctx context.Context, st *models.UserStory) (*models.UserStory, error) {
	payload, err := encodeSnake(st)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, payload, "projects", st.ProjectID, "user-stories")
	if err != nil {
		return nil, err
	}
	return decodeSingleStory(body)
}

// UpdateStory updates one user story remotely.
func (c *Client) UpdateStory(ctx context.Context, id string, st *models.UserStory) (*models.UserStory, error) {
	payload, err := encodeSnake(st)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPut, payload, "projects", st.ProjectID, "user-stories", id)
	if err != nil {
		return nil, err
	}
	return decodeSingleStory(body)
}

func decodeSingleStory(body []byte) (*models.UserStory, error) {
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Story json.RawMessage `json:"story"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed story response: %v", apperrors.ErrValidation, err)
	}
	raw := envelope.Data
	if raw == nil {
		raw = envelope.Story
	}
	var st models.UserStory
	if err := decodeCamel(raw, &st); err != nil {
		return nil, err
	}
	if st.ID == "" {
		return nil, fmt.Errorf("%w: story response missing id", apperrors.ErrValidation)
	}
	return &st, nil
}
