package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/avilov/authd/internal/models"
)

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// User repository interface
type UserRepo interface {
	// Create user
	// Email is normalized (lower-cased) before storage
	// If user with the same normalized email exists must return apperrors.ErrEmailTaken
	// Uniqueness has to be enforced by the storage itself, not by check-then-insert
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or normalized email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token if it exists, expired rows included
	// Callers must re-check token.IsActive on every use
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenValue string) (models.RefreshToken, error)

	// Revoke token by forcing its expiry into the past (never later than now)
	// Idempotent: expiring an already expired token is not an error
	// If token not found must return apperrors.ErrRefreshTokenNotFound
	Expire(ctx context.Context, tokenID uuid.UUID) error
}
