package handlers

import (
	"net/http"

	"github.com/avilov/authd/internal/handlers/render"
	"github.com/avilov/authd/internal/handlers/userctx"
)

// handleUserMe returns the authenticated user's profile.
// Requires auth middleware: the user must already be in the context
func handleUserMe() http.Handler {
	type MeResponse struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name,omitempty"`
		IsAdmin bool   `json:"is_admin"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, MeResponse{
			ID:      user.ID.String(),
			Email:   user.Email,
			Name:    user.Name,
			IsAdmin: user.IsAdmin,
		})
	})
}
