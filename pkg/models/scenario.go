package models

import (
	"strings"
	"time"
)

// Scenario types. Offline generation produces exactly one scenario of each
// type per story.
const (
	ScenarioHappyPath     = "happy_path"
	ScenarioAlternatePath = "alternate_path"
	ScenarioExceptionPath = "exception_path"
	ScenarioBoundaryCase  = "boundary_case"
)

// Scenario review statuses.
const (
	ScenarioStatusDraft    = "draft"
	ScenarioStatusAccepted = "accepted"
	ScenarioStatusRejected = "rejected"
)

// ScenarioTypes lists all generated scenario types in generation order.
var ScenarioTypes = []string{
	ScenarioHappyPath,
	ScenarioAlternatePath,
	ScenarioExceptionPath,
	ScenarioBoundaryCase,
}

// Scenario is a Gherkin test scenario belonging to a project, optionally
// linked to the user story it was derived from.
type Scenario struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"projectId"`
	StoryID        string    `json:"storyId,omitempty"`
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	Type           string    `json:"type"`
	Domain         string    `json:"domain"`
	StructureValid bool      `json:"structureValid"`
	Steps          []string  `json:"steps"`
	EnhancedByLLM  bool      `json:"enhancedByLlm"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Touch bumps UpdatedAt, keeping it strictly monotonic.
func (s *Scenario) Touch(now time.Time) {
	if !now.After(s.UpdatedAt) {
		now = s.UpdatedAt.Add(time.Millisecond)
	}
	s.UpdatedAt = now
}

// ValidStructure reports whether the ordered step list forms a well-formed
// Gherkin scenario: at least one Given, one When and one Then, in that order.
func (s *Scenario) ValidStructure() bool {
	order := []string{"Given ", "When ", "Then "}
	idx := 0
	for _, step := range s.Steps {
		if idx < len(order) && strings.HasPrefix(step, order[idx]) {
			idx++
		}
	}
	return idx == len(order)
}
