package handlers

import (
	"context"
	"net/http"

	"github.com/avilov/authd/internal/handlers/middleware"
	"github.com/avilov/authd/internal/logger"
	"github.com/avilov/authd/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type routerAuthService interface {
	AuthService

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

func NewRouter(authService routerAuthService, l logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	apiauth := http.NewServeMux()
	apiauth.Handle("/", NewAuth(authService, l).Handler())
	apiauth.Handle("GET /me", withAuth(handleUserMe()))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}
