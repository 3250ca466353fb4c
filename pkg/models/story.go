package models

import "time"

// Story priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// UserStory is a single user story belonging to a project.
type UserStory struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"projectId"`
	Role               string    `json:"role"`
	Action             string    `json:"action"`
	Benefit            string    `json:"benefit"`
	Feature            string    `json:"feature"`
	AcceptanceCriteria []string  `json:"acceptanceCriteria"`
	Priority           string    `json:"priority"`
	Estimate           string    `json:"estimate"`
	Status             string    `json:"status"`
	GeneratedByLLM     bool      `json:"generatedByLlm"`
	Iteration          int       `json:"iteration"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Touch bumps UpdatedAt, keeping it strictly monotonic.
func (s *UserStory) Touch(now time.Time) {
	if !now.After(s.UpdatedAt) {
		now = s.UpdatedAt.Add(time.Millisecond)
	}
	s.UpdatedAt = now
}
