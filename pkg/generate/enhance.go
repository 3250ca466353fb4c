package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/llm"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

const enhanceSystemMessage = `You improve Gherkin test scenarios. Rewrite the given scenario so the steps are specific and testable while keeping the Given/When/Then order and the scenario's intent. Respond with JSON only: {"title": "...", "steps": ["Given ...", "When ...", "Then ..."]}`

const enhanceTemperature = 0.3

// Enhancer rewrites template-generated scenarios through a language model.
// Every failure keeps the original record; enhancement is strictly
// best-effort and never changes counts, ids or types.
type Enhancer struct {
	client llm.LLMClient
	logger *zap.Logger
}

// NewEnhancer creates the enhancement pass. Returns nil when no client is
// configured, which callers treat as enhancement disabled.
func NewEnhancer(client llm.LLMClient, logger *zap.Logger) *Enhancer {
	if client == nil {
		return nil
	}
	return &Enhancer{
		client: client,
		logger: logger.Named("enhance"),
	}
}

type enhancedScenario struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// Enhance rewrites each scenario in place and marks it enhanced. Scenarios
// whose rewrite fails or comes back malformed are kept verbatim.
func (e *Enhancer) Enhance(ctx context.Context, scenarios []*models.Scenario) []*models.Scenario {
	for _, sc := range scenarios {
		if err := e.enhanceOne(ctx, sc); err != nil {
			e.logger.Warn("enhancement skipped",
				zap.String("scenario_id", sc.ID),
				zap.String("type", sc.Type),
				zap.Error(err))
		}
	}
	return scenarios
}

func (e *Enhancer) enhanceOne(ctx context.Context, sc *models.Scenario) error {
	prompt := fmt.Sprintf("Scenario type: %s\nTitle: %s\nSteps:\n%s",
		sc.Type, sc.Title, strings.Join(sc.Steps, "\n"))

	response, err := e.client.GenerateResponse(ctx, prompt, enhanceSystemMessage, enhanceTemperature)
	if err != nil {
		return err
	}

	raw, err := llm.ExtractJSON(response)
	if err != nil {
		return err
	}

	var enhanced enhancedScenario
	if err := json.Unmarshal([]byte(raw), &enhanced); err != nil {
		return fmt.Errorf("decode enhanced scenario: %w", err)
	}
	if len(enhanced.Steps) == 0 {
		return fmt.Errorf("enhanced scenario has no steps")
	}

	candidate := *sc
	candidate.Steps = enhanced.Steps
	if enhanced.Title != "" {
		candidate.Title = enhanced.Title
	}
	if !candidate.ValidStructure() {
		return fmt.Errorf("enhanced steps lost Given/When/Then structure")
	}

	sc.Title = candidate.Title
	sc.Steps = enhanced.Steps
	sc.Text = strings.Join(enhanced.Steps, "\n")
	sc.StructureValid = true
	sc.EnhancedByLLM = true
	return nil
}
