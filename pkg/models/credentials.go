package models

import "time"

// Credentials is the persisted session identity. A username carrying the
// guest prefix means the session is anonymous and holds no tokens.
type Credentials struct {
	Username     string    `json:"username"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	SavedAt      time.Time `json:"savedAt"`
}

// IsGuest reports whether these credentials belong to an anonymous session.
func (c *Credentials) IsGuest() bool {
	return c == nil || c.Token == "" || IsGuestOwner(c.Username)
}
