package models

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/avilov/authd/internal/apperrors"
)

// Ids are uuids everywhere in this service. These constructors are the only
// place a string becomes an id, so a foreign-format id from an old token or
// a hand-crafted request dies here instead of reaching a repository.

func ParseUserID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: not a user id", apperrors.ErrInvalidIdentifier)
	}
	return id, nil
}

func ParseTokenID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: not a token id", apperrors.ErrInvalidIdentifier)
	}
	return id, nil
}
