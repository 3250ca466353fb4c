package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/jsonutil"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// GenerateOptions controls the remote scenario generation endpoint.
type GenerateOptions struct {
	ForceRegenerate   bool `json:"forceRegenerate"`
	OverwriteExisting bool `json:"overwriteExisting"`
}

// Existence is the result of a remote existence check.
type Existence struct {
	Exists bool
	Count  int
}

// AcceptResult is the result of accepting scenarios remotely.
type AcceptResult struct {
	AcceptedCount int
	Accepted      []*models.Scenario
}

// ListScenarios fetches all scenarios for a project. A missing project is
// zero remote records, not an error. When the primary endpoint answers with
// an unusable payload the alternate read endpoint is tried before giving up.
func (c *Client) ListScenarios(ctx context.Context, projectID string) (*RecordSet, error) {
	body, err := c.do(ctx, http.MethodGet, nil, "projects", projectID, "scenarios")
	if errors.Is(err, apperrors.ErrNotFound) {
		return emptyRecordSet(), nil
	}
	if err != nil {
		return nil, err
	}

	set, err := normalizeScenarios(body)
	if errors.Is(err, apperrors.ErrValidation) {
		c.logger.Warn("primary scenario list unusable, trying export endpoint",
			zap.String("project_id", projectID),
			zap.String("cause", err.Error()))
		return c.exportScenarios(ctx, projectID)
	}
	return set, err
}

// exportScenarios is the alternate read endpoint. It returns an equivalent
// payload in the nested data shape; normalization hides the difference.
func (c *Client) exportScenarios(ctx context.Context, projectID string) (*RecordSet, error) {
	body, err := c.do(ctx, http.MethodGet, nil, "projects", projectID, "export-scenarios")
	if errors.Is(err, apperrors.ErrNotFound) {
		return emptyRecordSet(), nil
	}
	if err != nil {
		return nil, err
	}
	return normalizeScenarios(body)
}

// GenerateScenarios triggers remote LLM-backed generation for a project and
// returns the generated set.
func (c *Client) GenerateScenarios(ctx context.Context, projectID string, opts GenerateOptions) (*RecordSet, error) {
	payload, err := encodeSnake(opts)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, payload, "projects", projectID, "generate-scenarios")
	if err != nil {
		return nil, err
	}
	return normalizeScenarios(body)
}

// AcceptScenarios marks the given scenarios accepted on the remote side.
func (c *Client) AcceptScenarios(ctx context.Context, projectID string, scenarioIDs []string) (*AcceptResult, error) {
	body, err := c.do(ctx, http.MethodPost,
		map[string]interface{}{"scenario_ids": scenarioIDs},
		"projects", projectID, "accept-scenarios")
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	var envelope struct {
		Data struct {
			AcceptedCount     json.RawMessage `json:"accepted_count"`
			AcceptedScenarios json.RawMessage `json:"accepted_scenarios"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed accept response: %v", apperrors.ErrValidation, err)
	}

	result := &AcceptResult{AcceptedCount: jsonutil.FlexibleInt(envelope.Data.AcceptedCount)}
	if err := decodeCamel(envelope.Data.AcceptedScenarios, &result.Accepted); err != nil {
		return nil, err
	}
	if result.AcceptedCount == 0 {
		result.AcceptedCount = len(result.Accepted)
	}
	return result, nil
}

// BulkSyncScenarios ships the local scenario set to the remote bulk-sync
// endpoint and returns the authoritative merged set. The remote side owns the
// merge decision; both sides' updatedAt values travel with the records.
// ErrNotFound means the server has no bulk endpoint; callers fall back to
// per-record sync.
func (c *Client) BulkSyncScenarios(ctx context.Context, projectID string, local []*models.Scenario) ([]*models.Scenario, error) {
	outbound, err := encodeSnake(local)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost,
		map[string]interface{}{"local_scenarios": outbound},
		"projects", projectID, "sync-scenarios")
	if err != nil {
		return nil, err
	}

	set, err := normalizeScenarios(body)
	if err != nil {
		return nil, err
	}
	return set.Scenarios, nil
}

// CheckScenarios asks whether the remote store holds scenarios for a project.
func (c *Client) CheckScenarios(ctx context.Context, projectID string) (*Existence, error) {
	body, err := c.do(ctx, http.MethodGet, nil, "projects", projectID, "check-scenarios")
	if errors.Is(err, apperrors.ErrNotFound) {
		return &Existence{}, nil
	}
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	var envelope struct {
		Exists        json.RawMessage `json:"exists"`
		ScenarioCount json.RawMessage `json:"scenario_count"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed existence response: %v", apperrors.ErrValidation, err)
	}
	return &Existence{
		Exists: jsonutil.FlexibleBool(envelope.Exists),
		Count:  jsonutil.FlexibleInt(envelope.ScenarioCount),
	}, nil
}

// CreateScenario creates one scenario remotely and returns the stored record.
// Idempotent for a given record id; a retried create never duplicates.
func (c *Client) CreateScenario(ctx context.Context, sc *models.Scenario) (*models.Scenario, error) {
	payload, err := encodeSnake(sc)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, payload, "projects", sc.ProjectID, "scenarios")
	if err != nil {
		return nil, err
	}
	return decodeSingleScenario(body)
}

// UpdateScenario updates one scenario remotely. ErrNotFound means the record
// does not exist yet; callers create it instead.
func (c *Client) UpdateScenario(ctx context.Context, id string, sc *models.Scenario) (*models.Scenario, error) {
	payload, err := encodeSnake(sc)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPut, payload, "projects", sc.ProjectID, "scenarios", id)
	if err != nil {
		return nil, err
	}
	return decodeSingleScenario(body)
}

// decodeSingleScenario accepts both single-record response shapes:
// {"success": true, "data": {...}} and {"success": true, "scenario": {...}}.
func decodeSingleScenario(body []byte) (*models.Scenario, error) {
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}
	var envelope struct {
		Data     json.RawMessage `json:"data"`
		Scenario json.RawMessage `json:"scenario"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed scenario response: %v", apperrors.ErrValidation, err)
	}
	raw := envelope.Data
	if raw == nil {
		raw = envelope.Scenario
	}
	var sc models.Scenario
	if err := decodeCamel(raw, &sc); err != nil {
		return nil, err
	}
	if sc.ID == "" {
		return nil, fmt.Errorf("%w: scenario response missing id", apperrors.ErrValidation)
	}
	return &sc, nil
}
