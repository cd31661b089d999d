package devotees

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/store/members"
)

// ServeSearch returns up to 100 member summaries matching ?query= by name,
// phone or email.
//
// GET /devotees?query=
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		apierrors.BadRequest(w, "query is required")
		return
	}
	ctx, cancel := shortCtx(r)
	defer cancel()

	out, err := h.Members.Search(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member search failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, out)
}

// ServeDetail returns one member with joined display names.
//
// GET /devotee?devoteeId=
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("devoteeId")), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(w, "devoteeId is required")
		return
	}
	ctx, cancel := shortCtx(r)
	defer cancel()

	d, err := h.Members.Detail(ctx, id)
	if errors.Is(err, members.ErrNotFound) {
		apierrors.NotFound(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member detail failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, d)
}

// ServeReferrals lists the members the caller referred, newest first.
//
// GET /devotees/referrals
func (h *Handler) ServeReferrals(w http.ResponseWriter, r *http.Request) {
	actor := memberpolicy.Actor(r)
	if actor == nil {
		apierrors.Unauthorized(w)
		return
	}
	ctx, cancel := shortCtx(r)
	defer cancel()

	out, err := h.Members.ListReferrals(ctx, actor.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list referrals failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, out)
}

// ServeInsights returns {total, active, volunteers, leaders}.
//
// GET /devotees/insights
func (h *Handler) ServeInsights(w http.ResponseWriter, r *http.Request) {
	if !memberpolicy.CanViewInsights(memberpolicy.Actor(r)) {
		apierrors.Forbidden(w)
		return
	}
	ctx, cancel := shortCtx(r)
	defer cancel()

	out, err := h.Members.Insights(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member insights failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, out)
}
