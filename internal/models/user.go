package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Name         string // optional display label, may be empty
	Email        string // always stored lower-cased
	PasswordHash string
	IsAdmin      bool
}
