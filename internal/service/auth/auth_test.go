package auth

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilov/authd/internal/apperrors"
	"github.com/avilov/authd/internal/repository/postgres"
	"github.com/avilov/authd/internal/testutil"
)

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction and create new AuthService
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, accessTTL time.Duration, refreshTTL time.Duration, t *testing.T, fn func(s *AuthService)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			refreshRepo := &postgres.RefreshTokenRepo{DB: tx}

			s, err := NewService(Config{
				SecretKey:       "test-secret-key",
				AccessTokenTTL:  accessTTL,
				RefreshTokenTTL: refreshTTL,
			}, userRepo, refreshRepo)
			require.NoError(t, err, "auth service should be created without errors")

			fn(s)
		})
	}

	t.Run("new service defaults", func(t *testing.T) {
		withTx(pg.Pool, 0, 0, t, func(s *AuthService) {
			require.Equal(t, defaultAccessHeaderName, s.accessHeaderName, "default access header name should be set")
			require.Equal(t, defaultAccessAuthScheme, s.accessAuthScheme, "default access auth scheme should be set")
			require.Equal(t, defaultRefreshCookieName, s.refreshCookieName, "default refresh cookie name should be set")
			require.Equal(t, defaultRefreshCookiePath, s.refreshCookiePath, "default refresh cookie path should be set")
			require.Equal(t, defaultRefreshTokenTTL, s.refreshTTL, "default refresh token TTL should be set")
			require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
		})
	})

	t.Run("new service fails without secret", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			_, err := NewService(Config{}, &postgres.UserRepo{DB: tx}, &postgres.RefreshTokenRepo{DB: tx})
			require.Error(t, err)
		})
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				user, err := s.Register(t.Context(), "Nikita", "A@B.com", "Abcdef1!")

				require.NoError(t, err, "registering new user should be ok")
				require.Equal(t, "a@b.com", user.Email, "email must be normalized before storage")
				require.Equal(t, "Nikita", user.Name)
				require.False(t, user.IsAdmin)
				require.NotEqual(t, "Abcdef1!", user.PasswordHash, "plaintext must never be stored")
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				_, err = s.Register(t.Context(), "", "USER@example.com", "Other3#pwd")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrEmailTaken)
			})
		})

		t.Run("weak password fails before any write", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "weak@example.com", "abcdef1")

				require.Error(t, err)
				var policyErr *apperrors.PasswordPolicyError
				require.ErrorAs(t, err, &policyErr)

				// No partial user record may exist: registration with the
				// same email and a valid password must succeed
				_, err = s.Register(t.Context(), "", "weak@example.com", "Abcdef1!")
				require.NoError(t, err)
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				pair, err := s.Login(t.Context(), "user@example.com", "Abcdef1!")

				require.NoError(t, err)
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
				require.Len(t, pair.Refresh.Value, 64, "refresh token value should be 64 chars")
			})
		})

		t.Run("mixed case email ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "a@b.com", "Abcdef1!")
				require.NoError(t, err)

				_, err = s.Login(t.Context(), "A@B.COM", "Abcdef1!")

				require.NoError(t, err, "login lookup must be case insensitive")
			})
		})

		t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				_, errWrongPassword := s.Login(t.Context(), "user@example.com", "Wrong1!pwd")
				_, errUnknownEmail := s.Login(t.Context(), "nobody@example.com", "Abcdef1!")

				require.ErrorIs(t, errWrongPassword, apperrors.ErrInvalidCredentials)
				require.ErrorIs(t, errUnknownEmail, apperrors.ErrInvalidCredentials)
				assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error(), "error must not reveal whether the email exists")
			})
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("active token ok", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				access, err := s.Refresh(t.Context(), pair.Refresh.Value)

				require.NoError(t, err)
				require.NotEmpty(t, access.Value)
			})
		})

		t.Run("token not rotated on use", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.NoError(t, err, "refresh token stays valid until expiry or logout")
			})
		})

		t.Run("unknown token fails with invalid credentials", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Refresh(t.Context(), "never-issued-token-value")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			})
		})

		t.Run("expired token fails with invalid credentials", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, time.Second, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				// Wait out the refresh TTL
				time.Sleep(time.Second)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "found but expired must look like not found")
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes the session permanently", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				err = s.Logout(t.Context(), pair.Refresh.Value)
				require.NoError(t, err)

				_, err = s.Refresh(t.Context(), pair.Refresh.Value)
				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			})
		})

		t.Run("unknown token is a success", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				require.NoError(t, s.Logout(t.Context(), "never-issued-token-value"))
			})
		})

		t.Run("repeated logout is a success", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				_, err := s.Register(t.Context(), "", "user@example.com", "Abcdef1!")
				require.NoError(t, err)
				pair, err := s.Login(t.Context(), "user@example.com", "Abcdef1!")
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), pair.Refresh.Value))
				require.NoError(t, s.Logout(t.Context(), pair.Refresh.Value))
			})
		})
	})

	t.Run("ExpireToken", func(t *testing.T) {
		t.Run("malformed id fails with invalid identifier", func(t *testing.T) {
			withTx(pg.Pool, 15*time.Minute, 24*time.Hour, t, func(s *AuthService) {
				err := s.ExpireToken(t.Context(), "65d7a1f0c2b4a61234567890")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrInvalidIdentifier)
			})
		})
	})
}
