package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
)

func TestNormalizeScenariosListShape(t *testing.T) {
	body := []byte(`{
		"success": true,
		"project_title": "Billing",
		"count": 2,
		"scenarios": [
			{"id": "a", "project_id": "p", "type": "happy_path"},
			{"id": "b", "project_id": "p", "type": "boundary_case"}
		]
	}`)

	set, err := normalizeScenarios(body)
	require.NoError(t, err)
	assert.Equal(t, "Billing", set.ProjectTitle)
	assert.Equal(t, 2, set.Count)
	require.Len(t, set.Scenarios, 2)
	assert.Equal(t, "a", set.Scenarios[0].ID)
	assert.Equal(t, "p", set.Scenarios[0].ProjectID)
}

func TestNormalizeScenariosGenerateShape(t *testing.T) {
	body := []byte(`{
		"success": true,
		"data": {
			"count": 1,
			"generated_scenarios": [{"id": "g", "project_id": "p", "type": "exception_path"}]
		}
	}`)

	set, err := normalizeScenarios(body)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Count)
	require.Len(t, set.Scenarios, 1)
	assert.Equal(t, "g", set.Scenarios[0].ID)
}

func TestNormalizeScenariosBareDataArrayShape(t *testing.T) {
	body := []byte(`{
		"success": true,
		"data": [{"id": "m", "project_id": "p", "type": "alternate_path"}]
	}`)

	set, err := normalizeScenarios(body)
	require.NoError(t, err)
	require.Len(t, set.Scenarios, 1)
	assert.Equal(t, "m", set.Scenarios[0].ID)
	// Count falls back to the list length when the payload omits it.
	assert.Equal(t, 1, set.Count)
}

func TestNormalizeScenariosNestedScenariosShape(t *testing.T) {
	body := []byte(`{
		"success": true,
		"data": {"scenarios": [{"id": "x", "project_id": "p", "type": "happy_path"}]}
	}`)

	set, err := normalizeScenarios(body)
	require.NoError(t, err)
	require.Len(t, set.Scenarios, 1)
	assert.Equal(t, "x", set.Scenarios[0].ID)
}

func TestNormalizeScenariosEmptyList(t *testing.T) {
	set, err := normalizeScenarios([]byte(`{"success": true, "scenarios": []}`))
	require.NoError(t, err)
	assert.Empty(t, set.Scenarios)
	assert.Zero(t, set.Count)
}

func TestNormalizeScenariosStringCount(t *testing.T) {
	// Some responses quote numeric fields.
	body := []byte(`{
		"success": true,
		"count": "3",
		"scenarios": [{"id": "a", "project_id": "p"}]
	}`)

	set, err := normalizeScenarios(body)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Count)
}

func TestNormalizeScenariosUnknownShape(t *testing.T) {
	_, err := normalizeScenarios([]byte(`{"success": true, "message": "ok"}`))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNormalizeScenariosMissingSuccessFlag(t *testing.T) {
	_, err := normalizeScenarios([]byte(`{"scenarios": []}`))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
