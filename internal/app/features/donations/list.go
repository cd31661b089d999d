package donations

import (
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/reportpolicy"
	donationstore "github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/paging"
	"github.com/dalemusser/templehub/internal/domain/models"
)

type listResponse struct {
	Donations []models.Donation `json:"donations"`
	Total     int64             `json:"total"`
	HasMore   bool              `json:"hasMore"`
}

// parseListQuery reads filter, sort, order, offset and limit. The default
// order is oldest first; limit=0 returns every matching row.
func parseListQuery(r *http.Request) (donationstore.ListQuery, inputval.FieldErrors) {
	v := r.URL.Query()
	fe := inputval.FieldErrors{}
	q := donationstore.ListQuery{
		Filter: strings.TrimSpace(v.Get("filter")),
		Sort:   strings.TrimSpace(v.Get("sort")),
	}
	switch strings.ToLower(v.Get("order")) {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		fe["order"] = "must be one of: asc desc"
	}
	page := paging.ParseAll(r, DefaultPageSize, MaxPageSize, fe)
	q.Offset, q.Limit = page.Offset, page.Limit
	return q, fe
}

// ServeList returns one page of the ledger and the matching total.
//
// GET /donations?filter=&sort=&order=&offset=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !reportpolicy.CanViewDonations(r) {
		apierrors.Forbidden(w)
		return
	}
	q, fe := parseListQuery(r)
	if len(fe) > 0 {
		apierrors.Invalid(w, fe)
		return
	}
	ctx, cancel := shortCtx(r)
	defer cancel()

	rows, total, err := h.Donations.List(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list donations failed", err)
		return
	}
	page := paging.Page{Offset: q.Offset, Limit: q.Limit}
	apierrors.WriteJSON(w, http.StatusOK, listResponse{Donations: rows, Total: total, HasMore: page.HasMore(total)})
}
