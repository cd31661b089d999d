// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/paging"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// parseFilter reads member, actor, category, event, since, limit and offset.
func parseFilter(r *http.Request) (audit.QueryFilter, inputval.FieldErrors) {
	q := r.URL.Query()
	fe := inputval.FieldErrors{}
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event")),
	}
	if f.Category != "" && !categories[f.Category] {
		fe["category"] = "must be one of: auth admin"
	}
	id := func(key string) *int64 {
		s := strings.TrimSpace(q.Get(key))
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			fe[key] = "must be a member id"
			return nil
		}
		return &n
	}
	f.MemberID = id("member")
	f.ActorID = id("actor")

	if s := strings.TrimSpace(q.Get("since")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			fe["since"] = "must be yyyy-mm-dd"
		} else {
			f.Since = &t
		}
	}
	page := paging.Parse(r, paging.PageSize, paging.MaxPageSize, fe)
	f.Offset, f.Limit = page.Offset, page.Limit
	return f, fe
}

// ServeList handles GET /audit: recorded events, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, fe := parseFilter(r)
	if len(fe) > 0 {
		apierrors.Invalid(w, fe)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit query failed", err)
		return
	}
	total, err := h.Audit.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "audit count failed", err)
		return
	}

	// Resolve member names in one lookup.
	var ids []int64
	seen := map[int64]bool{}
	for _, e := range events {
		for _, p := range []*int64{e.ActorID, e.MemberID} {
			if p != nil && !seen[*p] {
				seen[*p] = true
				ids = append(ids, *p)
			}
		}
	}
	names, err := h.Members.Names(ctx, ids)
	if err != nil {
		// Names are cosmetic; list without them.
		h.Log.Warn("resolve audit member names failed", zap.Error(err))
		names = map[int64]string{}
	}
	name := func(p *int64) string {
		if p == nil {
			return ""
		}
		return names[*p]
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.CreatedAt,
			Category:      e.Category,
			EventType:     e.EventType,
			ActorID:       e.ActorID,
			ActorName:     name(e.ActorID),
			MemberID:      e.MemberID,
			MemberName:    name(e.MemberID),
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		})
	}
	page := paging.Page{Offset: filter.Offset, Limit: filter.Limit}
	apierrors.WriteJSON(w, http.StatusOK, listResponse{Events: items, Total: total, HasMore: page.HasMore(total)})
}
