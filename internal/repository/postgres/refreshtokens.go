package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avilov/authd/internal/apperrors"
	"github.com/avilov/authd/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, token, created_at, expires_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getToken = `-- name: GetRefreshToken
SELECT id, user_id, token, created_at, expires_at
FROM refresh_tokens
WHERE token = $1
`

// Get token by its opaque value
// Returns the row even if it is expired: an expired row is inert, not an error.
// Activity must be re-checked by the caller with token.IsActive
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenValue string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenValue)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrRefreshTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const expireToken = `-- name: ExpireRefreshToken
UPDATE refresh_tokens
SET expires_at = least(expires_at, now())
WHERE id = $1
RETURNING expires_at
`

// Expire revokes the token by moving its expiry to now.
// least() keeps the earlier expiry, so concurrent or repeated calls commute:
// every outcome converges to "expired"
func (r *RefreshTokenRepo) Expire(ctx context.Context, tokenID uuid.UUID) error {
	rows, _ := r.DB.Query(ctx, expireToken, tokenID)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[time.Time])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrRefreshTokenNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt)
	return t, err
}
