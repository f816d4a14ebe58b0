package models

import "time"

// PasswordResetToken is a single-use, time-bounded credential for the
// password reset flow. A new request always mints a new token; existing
// tokens are never refreshed.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string // opaque URL-safe random string, unique
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// IsValid reports whether the token can still be consumed.
func (t *PasswordResetToken) IsValid() bool {
	return !t.Used && time.Now().Before(t.ExpiresAt)
}
