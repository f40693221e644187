package domain

import "time"

// RevokedToken marks a bearer token that must no longer authenticate.
type RevokedToken struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	RevokedAt time.Time `json:"revoked_at"`
}

func (t *RevokedToken) IsExpired(reference time.Time) bool {
	if t == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !t.ExpiresAt.After(reference)
}
