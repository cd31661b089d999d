package devotees

import (
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves the /devotees collection. Every route needs a signed-in
// member; finer checks happen per handler.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeSearch)
	r.Get("/insights", h.ServeInsights)
	r.Get("/referrals", h.ServeReferrals)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(authz.MinBulkImport))
		r.Post("/bulk", h.Import.ServeJSON)
		r.Post("/bulk/upload", h.Import.ServeUpload)
	})

	r.Put("/{id}/notes", h.ServeNotes)
	r.Post("/{id}/role", h.ServeRole)
	r.Post("/{id}/leader", h.ServeLeader)
	return r
}

// DevoteeRoutes serves the single-member endpoints under /devotee.
func DevoteeRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeDetail)
	r.Post("/", h.ServeUpdate)
	return r
}
