package organization

import (
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves GET /organization.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeForest)
	return r
}
