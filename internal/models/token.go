package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair is returned to the user on successful authentication
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
