package donations

import (
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes serves the /donations collection.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Put("/{id}", h.ServeUpdate)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(authz.MinBulkImport))
		r.Post("/bulk", h.Import.ServeJSON)
		r.Post("/bulk/upload", h.Import.ServeUpload)
	})
	return r
}
