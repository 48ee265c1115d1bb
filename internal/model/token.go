package model

import "time"

// RefreshToken is a persisted opaque credential. The raw token value is
// the hex encoding of 256 random bits and doubles as the lookup key.
type RefreshToken struct {
	ID          string    `json:"id" db:"id"`
	Token       string    `json:"-" db:"token"`
	UserID      string    `json:"user_id" db:"user_id"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	Blacklisted bool      `json:"blacklisted" db:"blacklisted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Valid reports whether the token can still mint access tokens at the
// given instant. Expiry is detected lazily here; there is no background
// transition.
func (t RefreshToken) Valid(now time.Time) bool {
	return !t.Blacklisted && now.Before(t.ExpiresAt)
}
