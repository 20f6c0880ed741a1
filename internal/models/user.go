package models

import "time"

// User represents a registered account in the system.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose this to the client
	// ResetTokenHash holds the bcrypt hash of the currently pending reset
	// token. The empty string is the sentinel for "no pending reset".
	ResetTokenHash   string                 `json:"-"`
	ResetRequestedAt *time.Time             `json:"-"`
	Extra            map[string]interface{} `json:"extra,omitempty"` // Freeform registration fields, persisted verbatim
	CreatedAt        time.Time              `json:"createdAt"`
}

// HasPendingReset reports whether a reset token is currently active.
func (u User) HasPendingReset() bool {
	return u.ResetTokenHash != ""
}
