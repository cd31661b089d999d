package reports

import (
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
)

// ServeSummary returns {totalAmount, count} for the selected ranges.
//
// GET /reports/donations-summary?dateRange=&amountRange=
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	dr, ar, ok := h.ranges(w, r)
	if !ok {
		return
	}
	ctx, cancel := reportCtx(r)
	defer cancel()

	totals, err := h.Donations.Summary(ctx, dr, ar)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "donation summary failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, totals)
}

// ServeLineSummary returns per-day totals, oldest first.
//
// GET /reports/donations-line-summary?dateRange=
func (h *Handler) ServeLineSummary(w http.ResponseWriter, r *http.Request) {
	dr, _, ok := h.ranges(w, r)
	if !ok {
		return
	}
	ctx, cancel := reportCtx(r)
	defer cancel()

	points, err := h.Donations.LineSummary(ctx, dr)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "donation line summary failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, points)
}
