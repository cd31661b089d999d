package feed

import (
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /feed. Listing needs any signed-in member; posting is
// checked in the handler.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.ServePost)
	r.Get("/file", h.ServeFileURL)
	return r
}
