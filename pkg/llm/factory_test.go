package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/config"
)

func TestNewFromConfigUnconfigured(t *testing.T) {
	client, err := NewFromConfig(&config.LLMConfig{Provider: "openai"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewFromConfigOpenAI(t *testing.T) {
	client, err := NewFromConfig(&config.LLMConfig{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "k",
		BaseURL:  "http://localhost:11434/v1/",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "gpt-4o", client.GetModel())
	assert.Equal(t, "http://localhost:11434/v1", client.GetEndpoint())
	assert.IsType(t, &OpenAIClient{}, client)
}

func TestNewFromConfigAnthropic(t *testing.T) {
	client, err := NewFromConfig(&config.LLMConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-5-20250929",
		APIKey:   "k",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.IsType(t, &AnthropicClient{}, client)
}

func TestNewFromConfigUnknownProvider(t *testing.T) {
	_, err := NewFromConfig(&config.LLMConfig{
		Provider: "bard",
		Model:    "m",
		APIKey:   "k",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}
