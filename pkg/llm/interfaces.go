// Package llm provides the language-model clients used by the optional
// scenario enhancement pass.
package llm

import (
	"context"
)

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both clients implement LLMClient at compile time.
var (
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
