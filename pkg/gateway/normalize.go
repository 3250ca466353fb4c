package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/jsonutil"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// RecordSet is the single canonical result every scenario-bearing response
// shape maps into. The remote API grew several response layouts over time;
// they are all normalized here and nowhere else.
type RecordSet struct {
	Scenarios    []*models.Scenario
	ProjectTitle string
	Count        int
}

// normalizeScenarios maps every known response shape into a RecordSet:
//
//	{"success": true, "scenarios": [...], "project_title": "...", "count": N}    list endpoint
//	{"success": true, "data": {"generated_scenarios": [...], "count": N}}        generate endpoint
//	{"success": true, "data": [...]}                                             bulk-sync endpoint
//	{"success": true, "data": {"scenarios": [...]}}                              alternate read endpoint
//
// Each shape has a fixture in normalize_test.go. Unknown shapes fail with a
// validation error rather than guessing.
func normalizeScenarios(body []byte) (*RecordSet, error) {
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	var envelope struct {
		Scenarios    json.RawMessage `json:"scenarios"`
		ProjectTitle json.RawMessage `json:"project_title"`
		Count        json.RawMessage `json:"count"`
		Data         json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", apperrors.ErrValidation, err)
	}

	set := &RecordSet{
		ProjectTitle: jsonutil.FlexibleString(envelope.ProjectTitle),
	}

	list := envelope.Scenarios
	count := envelope.Count

	if list == nil && len(envelope.Data) > 0 {
		if envelope.Data[0] == '[' {
			list = envelope.Data
		} else {
			var nested struct {
				GeneratedScenarios json.RawMessage `json:"generated_scenarios"`
				Scenarios          json.RawMessage `json:"scenarios"`
				Count              json.RawMessage `json:"count"`
			}
			if err := json.Unmarshal(envelope.Data, &nested); err != nil {
				return nil, fmt.Errorf("%w: malformed data payload: %v", apperrors.ErrValidation, err)
			}
			if nested.GeneratedScenarios != nil {
				list = nested.GeneratedScenarios
			} else {
				list = nested.Scenarios
			}
			if nested.Count != nil {
				count = nested.Count
			}
		}
	}

	if list == nil {
		return nil, fmt.Errorf("%w: no scenario list in response", apperrors.ErrValidation)
	}

	if err := decodeCamel(list, &set.Scenarios); err != nil {
		return nil, err
	}

	set.Count = jsonutil.FlexibleInt(count)
	if set.Count == 0 {
		set.Count = len(set.Scenarios)
	}

	return set, nil
}

// emptyRecordSet is what a 404 becomes: zero remote records, not an error.
func emptyRecordSet() *RecordSet {
	return &RecordSet{}
}
