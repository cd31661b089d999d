// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// MountRoutes registers POST /logout on the /auth router. No sign-in is
// required so a client with an expired access token can still log out.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/logout", h.ServeLogout)
}
