// Package models contains domain types for the Story Canvas sync engine.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Project statuses.
const (
	StatusDraft      = "draft"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// GuestUsernamePrefix marks anonymous identities. Together with the IsGuest
// flag it makes a project eligible for purge on logout and adoption on
// migration.
const GuestUsernamePrefix = "guest_"

// Project is the parent of all other entities. A project is owned exclusively
// by the store that created it; ownership transfers atomically during
// migration.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Objective string    `json:"objective"`
	Scope     string    `json:"scope"`
	Flow      string    `json:"flow"`
	Notes     string    `json:"notes"`
	Domain    string    `json:"domain"`
	Status    string    `json:"status"`
	IsGuest   bool      `json:"isGuest"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewID returns a locally assigned record id. Remote-assigned ids are kept
// verbatim when mirrored locally; this is only for records created on this
// device, and the id never changes afterward.
func NewID() string {
	return uuid.NewString()
}

// IsGuestOwner reports whether the owner name marks an anonymous session.
func IsGuestOwner(owner string) bool {
	return strings.HasPrefix(owner, GuestUsernamePrefix)
}

// Touch bumps UpdatedAt, keeping it strictly monotonic. UpdatedAt is the sole
// tie-breaker for merge decisions, so equal timestamps are not allowed.
func (p *Project) Touch(now time.Time) {
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Millisecond)
	}
	p.UpdatedAt = now
}
