// Package organization serves the leadership forest.
package organization

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/hierarchy"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Members *members.Store
	ErrLog  *apierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(store *members.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Members: store, ErrLog: errLog, Log: logger}
}

// ServeForest builds the forest from a fresh read of every member.
//
// GET /organization
func (h *Handler) ServeForest(w http.ResponseWriter, r *http.Request) {
	if !memberpolicy.CanViewOrganization(memberpolicy.Actor(r)) {
		apierrors.Forbidden(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	all, err := h.Members.ListForOrganization(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organization failed", err)
		return
	}
	forest := hierarchy.Build(all)
	for _, a := range forest.Anomalies {
		h.Log.Warn("organization anomaly",
			zap.String("kind", a.Kind),
			zap.Int64s("member_ids", a.MemberIDs))
	}
	apierrors.WriteJSON(w, http.StatusOK, forest)
}
