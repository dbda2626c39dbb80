package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/avilov/authd/internal/apperrors"
	"github.com/avilov/authd/internal/handlers/render"
	"github.com/avilov/authd/internal/logger"
	"github.com/avilov/authd/internal/models"
)

// Auth service boundary the handlers depend on
type AuthService interface {
	// Register user
	// Has to return apperrors.ErrEmailTaken if the email is already used and
	// apperrors.PasswordPolicyError if the password is too weak
	Register(ctx context.Context, name string, email string, password string) (models.User, error)

	// Login user
	// Has to return apperrors.ErrInvalidCredentials on any credential problem,
	// without revealing whether the email exists
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Issue a new access token for an active refresh token
	// Has to return apperrors.ErrInvalidCredentials if token not found or not active
	Refresh(ctx context.Context, refreshValue string) (models.IssuedToken, error)

	// Revoke the session; unknown token is a success (idempotent)
	Logout(ctx context.Context, refreshValue string) error

	// Set auth tokens (access header, refresh cookie) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request cookie
	ReadRefreshToken(r *http.Request) (string, error)
}

type AuthHandler struct {
	auth   AuthService
	logger logger.Logger
}

func NewAuth(auth AuthService, l logger.Logger) *AuthHandler {
	if l == nil {
		l = logger.NewNoOpLogger()
	}
	return &AuthHandler{auth: auth, logger: l}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /logout", h.logout)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Name     string `json:"name" validate:"omitempty,min=1,max=128"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6,max=128"`
	}
	type RegisterSuccessResponse struct {
		Email string `json:"email"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.auth.Register(r.Context(), data.Name, data.Email, data.Password)
	if err != nil {
		var policyErr *apperrors.PasswordPolicyError
		switch {
		case errors.As(err, &policyErr):
			render.ServiceError(w, "Password "+policyErr.Rule, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "User with this email already exists", http.StatusConflict)
		default:
			h.logger.Error("user registration failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("user registered", "user_id", user.ID.String())
	render.JSONWithStatus(w, RegisterSuccessResponse{Email: user.Email}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			// Same body for unknown email and wrong password
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.auth.SetTokenPairToResponse(w, pair)
	render.JSON(w, LoginSuccessResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshSuccessResponse struct {
		AccessToken string `json:"access_token"`
	}

	refresh, err := h.auth.ReadRefreshToken(r)
	if err != nil {
		render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	access, err := h.auth.Refresh(r.Context(), refresh)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("token refresh failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Authorization", "Bearer "+access.Value)
	render.JSON(w, RefreshSuccessResponse{AccessToken: access.Value})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	refresh, err := h.auth.ReadRefreshToken(r)
	if err != nil {
		// No cookie means nothing to revoke; logout is idempotent
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.auth.Logout(r.Context(), refresh); err != nil {
		h.logger.Error("logout failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
