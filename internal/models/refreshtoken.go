package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the token may still be used.
// Revocation forces ExpiresAt into the past, so there is no separate flag:
// every caller must re-check activity on every use.
func (t RefreshToken) IsActive(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
