package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avilov/authd/internal/apperrors"
	"github.com/avilov/authd/internal/models"
	"github.com/avilov/authd/internal/repository"
	"github.com/avilov/authd/internal/service/auth/tokenmanager"
)

const (
	defaultRefreshTokenTTL = 30 * 24 * time.Hour

	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"

	// Cookie is scoped to the auth endpoints so browsers never send the
	// long-lived token anywhere else
	defaultRefreshCookiePath = "/api/auth"
)

type Config struct {
	// Secret key to sign access token payload
	// Required to be set
	SecretKey string

	// Hasher used during registration and login
	// If not set then bcrypt is used
	Hasher PasswordHasher

	// Access and refresh token lifetimes
	// If not set then defaults are used
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Refresh cookie shaping, externalized as configuration
	RefreshCookieName string
	RefreshCookiePath string
}

// AuthService composes hasher, user directory, token issuer and refresh
// token store into the user facing operations
type AuthService struct {
	token       *tokenmanager.TokenManager
	hasher      PasswordHasher
	userRepo    repository.UserRepo
	refreshRepo repository.RefreshTokenRepo

	refreshTTL time.Duration

	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string
	refreshCookiePath string

	// Hash compared against when the email is unknown, so login takes the
	// same time whether the user exists or not
	dummyHash string
}

func NewService(cfg Config, userRepo repository.UserRepo, refreshRepo repository.RefreshTokenRepo) (*AuthService, error) {
	if userRepo == nil || refreshRepo == nil {
		return nil, errors.New("repos must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}
	if cfg.RefreshCookiePath == "" {
		cfg.RefreshCookiePath = defaultRefreshCookiePath
	}

	token, err := tokenmanager.New(tokenmanager.Config{
		SecretKey: cfg.SecretKey,
		AccessTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	dummyHash, err := hasher.Hash("timing equalization value")
	if err != nil {
		return nil, fmt.Errorf("error while preparing hasher. Err: %w", err)
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		refreshRepo:       refreshRepo,
		refreshTTL:        cfg.RefreshTokenTTL,
		accessHeaderName:  defaultAccessHeaderName,
		accessAuthScheme:  defaultAccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
		refreshCookiePath: cfg.RefreshCookiePath,
		dummyHash:         dummyHash,
	}, nil
}

// Register creates a new user: password policy, then hash, then store.
// Email uniqueness is enforced by the user repo atomically, so two
// concurrent registrations end with exactly one apperrors.ErrEmailTaken
func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	var user models.User

	if err := ValidatePassword(password); err != nil {
		return user, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return user, err
	}

	return user, nil
}

// Login verifies credentials and starts a session.
// Unknown email and wrong password are indistinguishable to the caller:
// both cost one hash comparison and both end with ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return pair, apperrors.ErrInvalidCredentials
	case err != nil:
		return pair, fmt.Errorf("error while fetching user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return pair, apperrors.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Refresh exchanges an active refresh token for a fresh access token.
// The refresh token itself is not rotated: it stays valid until its
// original expiry or an explicit logout
func (s *AuthService) Refresh(ctx context.Context, refreshValue string) (models.IssuedToken, error) {
	var access models.IssuedToken

	token, err := s.refreshRepo.Get(ctx, refreshValue)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return access, apperrors.ErrInvalidCredentials
	case err != nil:
		return access, fmt.Errorf("error while fetching refresh token. Err: %w", err)
	}

	// Found but expired must look exactly like not found
	if !token.IsActive(time.Now()) {
		return access, apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByID(ctx, token.UserID)
	if err != nil {
		// A stored token always references an existing user; a miss here is
		// a broken invariant, not a client error
		return access, fmt.Errorf("refresh token owner can't be resolved. Err: %w", err)
	}

	return s.token.Issue(user)
}

// Logout revokes the session the refresh token belongs to.
// Unknown tokens are treated as success so logout stays idempotent
func (s *AuthService) Logout(ctx context.Context, refreshValue string) error {
	token, err := s.refreshRepo.Get(ctx, refreshValue)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error while fetching refresh token. Err: %w", err)
	}

	err = s.refreshRepo.Expire(ctx, token.ID)
	if err != nil && !errors.Is(err, apperrors.ErrRefreshTokenNotFound) {
		return fmt.Errorf("error while expiring refresh token. Err: %w", err)
	}

	return nil
}

// ExpireToken revokes one session by its token id.
// Expiring an already expired token is not an error; a malformed id fails
// with apperrors.ErrInvalidIdentifier before touching the store
func (s *AuthService) ExpireToken(ctx context.Context, tokenID string) error {
	id, err := models.ParseTokenID(tokenID)
	if err != nil {
		return err
	}

	return s.refreshRepo.Expire(ctx, id)
}

// Auth authenticates the request by its bearer access token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	header := r.Header.Get(s.accessHeaderName)
	scheme, access, found := strings.Cut(header, " ")
	if !found || scheme != s.accessAuthScheme {
		return user, apperrors.ErrAccessTokenInvalid
	}

	claims, err := s.token.Parse(access)
	if err != nil {
		return user, err
	}

	user, err = s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return user, fmt.Errorf("%w: unknown subject", apperrors.ErrAccessTokenInvalid)
	}

	return user, nil
}

// SetTokenPairToResponse delivers the pair to the client: access token in
// the Authorization header, refresh token in a scoped HttpOnly cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh))
}

// SetTokenPairToRequest sets the same tokens on an outgoing request.
// Mostly useful in tests
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(s.refreshCookie(pair.Refresh))
}

// ReadRefreshToken extracts the refresh token value from the request cookie
func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil {
		return "", apperrors.ErrRefreshTokenNotFound
	}
	return cookie.Value, nil
}

func (s *AuthService) refreshCookie(refresh models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    refresh.Value,
		Path:     s.refreshCookiePath,
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *AuthService) issuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := s.token.Issue(user)
	if err != nil {
		return pair, err
	}

	value, err := generateTokenValue()
	if err != nil {
		return pair, err
	}

	now := time.Now().Truncate(time.Second)
	refresh, err := s.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh.Token, ExpiresAt: refresh.ExpiresAt},
	}, nil
}
