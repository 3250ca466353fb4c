package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/logging"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// MigrationPayload is one guest project with all of its children, shipped to
// the remote migrate endpoint in a single request.
type MigrationPayload struct {
	Project     *models.Project     `json:"project"`
	UserStories []*models.UserStory `json:"userStories"`
	Wireframes  []*models.Wireframe `json:"wireframes"`
	Scenarios   []*models.Scenario  `json:"scenarios"`
}

// TokenPair is the result of a token refresh.
type TokenPair struct {
	Token        string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// MigrateGuestProject submits one guest project with its children for
// adoption into the authenticated account. The caller deletes local copies
// only after this returns nil; a conflict (remote already has data for the
// project) surfaces as ErrMigrationConflict.
func (c *Client) MigrateGuestProject(ctx context.Context, payload *MigrationPayload) error {
	outbound, err := encodeSnake(payload)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, http.MethodPost,
		map[string]interface{}{"project_data": outbound},
		"projects", "migrate-guest")
	if err != nil {
		return err
	}
	return checkEnvelope(body)
}

// SyncLocalProjects submits the core fields of all local guest projects to
// the sync-local endpoint. Children are synced separately per project.
func (c *Client) SyncLocalProjects(ctx context.Context, projects []*models.Project) error {
	outbound, err := encodeSnake(projects)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, http.MethodPost,
		map[string]interface{}{"projects": outbound},
		"projects", "sync-local")
	if err != nil {
		return err
	}
	return checkEnvelope(body)
}

// SignOut notifies the remote side that the session ended. Best effort; the
// caller's local purge never waits on or fails with this.
func (c *Client) SignOut(ctx context.Context) {
	body, err := c.do(ctx, http.MethodPost, nil, "auth", "sign-out")
	if err != nil {
		c.logger.Warn("remote sign-out failed", zap.String("cause", logging.SanitizeError(err)))
		return
	}
	if err := checkEnvelope(body); err != nil {
		c.logger.Warn("remote sign-out rejected", zap.String("cause", logging.SanitizeError(err)))
	}
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body, err := c.doOnce(ctx, http.MethodPost,
		map[string]interface{}{"refresh_token": refreshToken},
		"auth", "token", "refresh")
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed refresh response: %v", apperrors.ErrValidation, err)
	}
	raw := envelope.Data
	if raw == nil {
		raw = body
	}

	var pair TokenPair
	if err := decodeCamel(raw, &pair); err != nil {
		return nil, err
	}
	if pair.Token == "" {
		return nil, fmt.Errorf("%w: refresh response missing access token", apperrors.ErrValidation)
	}
	return &pair, nil
}
