package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilov/authd/internal/apperrors"
	"github.com/avilov/authd/internal/repository"
	"github.com/avilov/authd/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	arg := repository.CreateUserParams{
		Name:         "Test User",
		Email:        "user@example.com",
		PasswordHash: "hashed-password",
	}

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			got, err := repo.CreateUser(t.Context(), arg)

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, got.ID, "id must be assigned at creation")
			require.WithinDuration(t, time.Now(), got.CreatedAt, 5*time.Second)
			require.Equal(t, "Test User", got.Name)
			require.Equal(t, "user@example.com", got.Email)
			require.Equal(t, "hashed-password", got.PasswordHash)
			require.False(t, got.IsAdmin, "is_admin must default to false")
		})
	})

	t.Run("email stored lower cased", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			got, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
				Email:        "A@B.com",
				PasswordHash: "hashed-password",
			})

			require.NoError(t, err)
			require.Equal(t, "a@b.com", got.Email)
		})
	})

	t.Run("duplicate email fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), arg)
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), arg)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
		})
	})

	t.Run("duplicate email in different case fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), arg)
			require.NoError(t, err)

			dup := arg
			dup.Email = "USER@example.com"
			_, err = repo.CreateUser(t.Context(), dup)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
		})
	})

	t.Run("get by email is case insensitive", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			created, err := repo.CreateUser(t.Context(), arg)
			require.NoError(t, err)

			for _, email := range []string{"user@example.com", "USER@EXAMPLE.COM", "User@Example.Com"} {
				got, err := repo.GetUserByEmail(t.Context(), email)

				require.NoErrorf(t, err, "lookup with %q should find the user", email)
				require.Equal(t, created.ID, got.ID)
			}
		})
	})

	t.Run("get by email not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByEmail(t.Context(), "nobody@example.com")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("get by id", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			created, err := repo.CreateUser(t.Context(), arg)
			require.NoError(t, err)

			got, err := repo.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			require.Equal(t, created.Email, got.Email)
		})
	})

	t.Run("get by unknown id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByID(t.Context(), uuid.New())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
