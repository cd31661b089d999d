// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireSignedIn)
		// Role gating is enforced inside the handlers.
		rr.Get("/donations-summary", h.ServeSummary)
		rr.Get("/donations-line-summary", h.ServeLineSummary)
		rr.Get("/top-devotees-by-donations", h.ServeTopDonors)
		rr.Get("/top-devotees-by-donations.csv", h.ServeTopDonorsCSV)
	})

	return r
}
