package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnakeToCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"project_id", "projectId"},
		{"generated_by_llm", "generatedByLlm"},
		{"id", "id"},
		{"updated_at", "updatedAt"},
		{"scenario_type", "scenarioType"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnakeToCamel(tt.in))
	}
}

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"projectId", "project_id"},
		{"generatedByLlm", "generated_by_llm"},
		{"id", "id"},
		{"acceptanceCriteria", "acceptance_criteria"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CamelToSnake(tt.in))
	}
}

func TestRoundTripIsStable(t *testing.T) {
	keys := []string{"project_id", "updated_at", "structure_valid", "steps"}
	for _, k := range keys {
		assert.Equal(t, k, CamelToSnake(SnakeToCamel(k)))
	}
}

func TestKeysToCamelRecursesNestedObjectsAndLists(t *testing.T) {
	raw := `{
		"project_id": "p1",
		"local_scenarios": [
			{"scenario_type": "happy_path", "steps": ["Given x"], "structure_valid": true},
			{"scenario_type": "boundary_case", "nested": {"updated_at": "2026-01-01"}}
		]
	}`
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))

	out := KeysToCamel(v).(map[string]interface{})
	assert.Contains(t, out, "projectId")
	list := out["localScenarios"].([]interface{})
	first := list[0].(map[string]interface{})
	assert.Equal(t, "happy_path", first["scenarioType"])
	assert.Equal(t, true, first["structureValid"])
	second := list[1].(map[string]interface{})
	nested := second["nested"].(map[string]interface{})
	assert.Contains(t, nested, "updatedAt")
}

func TestKeysToSnakePreservesListOrder(t *testing.T) {
	v := map[string]interface{}{
		"steps": []interface{}{"Given a", "When b", "Then c"},
	}
	out := KeysToSnake(v).(map[string]interface{})
	steps := out["steps"].([]interface{})
	require.Len(t, steps, 3)
	assert.Equal(t, "Given a", steps[0])
	assert.Equal(t, "Then c", steps[2])
}

func TestFlexibleValues(t *testing.T) {
	assert.Equal(t, "hello", FlexibleString(json.RawMessage(`"hello"`)))
	assert.Equal(t, "42", FlexibleString(json.RawMessage(`42`)))
	assert.Equal(t, "", FlexibleString(nil))

	assert.True(t, FlexibleBool(json.RawMessage(`true`)))
	assert.True(t, FlexibleBool(json.RawMessage(`"true"`)))
	assert.True(t, FlexibleBool(json.RawMessage(`1`)))
	assert.False(t, FlexibleBool(json.RawMessage(`"no"`)))

	assert.Equal(t, 7, FlexibleInt(json.RawMessage(`7`)))
	assert.Equal(t, 7, FlexibleInt(json.RawMessage(`"7"`)))
	assert.Equal(t, 0, FlexibleInt(json.RawMessage(`null`)))
}
