package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	got, err := ExtractJSON(`{"steps": ["Given a", "When b"]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"steps": ["Given a", "When b"]}`, got)
}

func TestExtractJSONWithProse(t *testing.T) {
	got, err := ExtractJSON("Here is the improved scenario:\n\n{\"title\": \"x\"}\n\nLet me know!")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "x"}`, got)
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	got, err := ExtractJSON("```json\n[{\"id\": 1}]\n```")
	require.NoError(t, err)
	assert.Equal(t, `[{"id": 1}]`, got)
}

func TestExtractJSONStripsThinkTags(t *testing.T) {
	got, err := ExtractJSON("<think>nested {braces} here</think>{\"ok\": true}")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, got)
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	got, err := ExtractJSON(`{"text": "a } inside"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"text": "a } inside"}`, got)
}

func TestExtractJSONNone(t *testing.T) {
	_, err := ExtractJSON("sorry, I cannot help with that")
	assert.Error(t, err)
}
