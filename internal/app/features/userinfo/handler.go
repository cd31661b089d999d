// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
)

// Handler serves the signed-in member's own record.
type Handler struct {
	Members *members.Store
	ErrLog  *apierrors.ErrorLogger
}

// NewHandler creates a new userinfo handler.
func NewHandler(store *members.Store, errLog *apierrors.ErrorLogger) *Handler {
	return &Handler{Members: store, ErrLog: errLog}
}

// ServeMe returns {"devotee": MemberDetail} for the bearer of the access
// token.
//
// GET /auth/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Members.Detail(ctx, u.ID)
	if errors.Is(err, members.ErrNotFound) {
		apierrors.Unauthorized(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load own member detail failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]any{"devotee": d})
}
