package middleware

import (
	"context"
	"net/http"

	"github.com/avilov/authd/internal/handlers/render"
	"github.com/avilov/authd/internal/handlers/userctx"
	"github.com/avilov/authd/internal/models"
)

type authService interface {
	// Authenticate request, usually by its bearer access token
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects unauthenticated requests and puts the user into
// the request context for the wrapped handler
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
