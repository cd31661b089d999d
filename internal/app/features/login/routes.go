package login

import "github.com/go-chi/chi/v5"

// Routes serves POST /login.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	return r
}

// MountAuthRoutes registers POST /refresh on the /auth router.
func MountAuthRoutes(r chi.Router, h *Handler) {
	r.Post("/refresh", h.HandleRefresh)
}
