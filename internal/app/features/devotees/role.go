package devotees

import (
	"fmt"
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.uber.org/zap"
)

type roleInput struct {
	// Role is a name ("leader") or number (3).
	Role any `json:"role"`
}

// ServeRole changes a member's role.
//
// POST /devotees/{id}/role
func (h *Handler) ServeRole(w http.ResponseWriter, r *http.Request) {
	actor := memberpolicy.Actor(r)
	if actor == nil {
		apierrors.Unauthorized(w)
		return
	}
	id, ok := pathID(r)
	if !ok {
		apierrors.BadRequest(w, "invalid member id")
		return
	}

	var in roleInput
	if err := apierrors.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if in.Role == nil {
		apierrors.Invalid(w, inputval.FieldErrors{"role": "is required"})
		return
	}
	newRole, ok := models.ParseRole(fmt.Sprint(in.Role))
	if !ok {
		apierrors.Invalid(w, inputval.FieldErrors{"role": "must be one of: member volunteer leader admin"})
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	target, ok := h.loadTarget(ctx, w, r, id)
	if !ok {
		return
	}
	if !memberpolicy.CanChangeRole(actor, *target, newRole) {
		apierrors.Forbidden(w)
		return
	}
	if target.RoleID == newRole {
		apierrors.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "role_id": newRole})
		return
	}

	if err := h.Members.SetRole(ctx, id, newRole, actor.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "set role failed", err)
		return
	}
	h.AuditLog.RoleChanged(ctx, r, actor.ID, id, target.RoleID.String(), newRole.String())
	h.Log.Info("member role changed",
		zap.Int64("member_id", id),
		zap.Int64("actor_id", actor.ID),
		zap.Stringer("from", target.RoleID),
		zap.Stringer("to", newRole))
	apierrors.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "role_id": newRole})
}
