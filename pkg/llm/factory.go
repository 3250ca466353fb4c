package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/config"
)

// NewFromConfig creates the client selected by the configured provider.
// Returns nil (and no error) when no key is configured; callers treat a nil
// client as "enhancement disabled" and keep the deterministic output as is.
func NewFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}

	clientCfg := &Config{
		Endpoint: cfg.BaseURL,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(clientCfg, logger)
	case "anthropic":
		return NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
