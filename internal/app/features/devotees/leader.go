package devotees

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
)

// leaderInput uses a raw leader_id so an explicit null (unassign) can be
// told apart from a missing key.
type leaderInput struct {
	LeaderID json.RawMessage `json:"leader_id"`
	Confirm  bool            `json:"confirm"`
}

func (in leaderInput) leader() (id *int64, present bool, err error) {
	if len(in.LeaderID) == 0 {
		return nil, false, nil
	}
	if string(in.LeaderID) == "null" {
		return nil, true, nil
	}
	var v int64
	if err := json.Unmarshal(in.LeaderID, &v); err != nil || v <= 0 {
		return nil, true, errors.New("invalid leader_id")
	}
	return &v, true, nil
}

// ServeLeader assigns or clears a member's leader.
//
// POST /devotees/{id}/leader
func (h *Handler) ServeLeader(w http.ResponseWriter, r *http.Request) {
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

	var in leaderInput
	if err := apierrors.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	leaderID, present, err := in.leader()
	if !present {
		apierrors.Invalid(w, inputval.FieldErrors{"leader_id": "is required"})
		return
	}
	if err != nil {
		apierrors.Invalid(w, inputval.FieldErrors{"leader_id": "must be a member id or null"})
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	target, ok := h.loadTarget(ctx, w, r, id)
	if !ok {
		return
	}

	if leaderID == nil {
		err = memberpolicy.CheckUnassignLeader(actor, *target)
	} else {
		err = memberpolicy.CheckAssignLeader(actor, *target, *leaderID, in.Confirm)
	}
	switch {
	case errors.Is(err, memberpolicy.ErrForbidden):
		apierrors.Forbidden(w)
		return
	case errors.Is(err, memberpolicy.ErrConfirmationRequired):
		apierrors.Invalid(w, inputval.FieldErrors{"confirm": "must be true to take on this member"})
		return
	case errors.Is(err, memberpolicy.ErrAdminTarget):
		apierrors.Invalid(w, inputval.FieldErrors{"leader_id": "admins cannot have a leader"})
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "leader policy failed", err)
		return
	}

	if leaderID != nil {
		leader, err := h.Members.GetByID(ctx, *leaderID)
		if errors.Is(err, members.ErrNotFound) {
			apierrors.Invalid(w, inputval.FieldErrors{"leader_id": "no such member"})
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load leader failed", err)
			return
		}
		if !memberpolicy.CanLead(*leader) {
			apierrors.Invalid(w, inputval.FieldErrors{"leader_id": "member is not a leader"})
			return
		}
	}

	if err := h.Members.SetLeader(ctx, id, leaderID, actor.ID); err != nil {
		switch {
		case errors.Is(err, members.ErrLeaderCycle):
			apierrors.Invalid(w, inputval.FieldErrors{"leader_id": "would create a leadership cycle"})
		case errors.Is(err, members.ErrNotFound):
			apierrors.NotFound(w)
		default:
			h.ErrLog.LogServerError(w, r, "set leader failed", err)
		}
		return
	}

	var lid int64
	if leaderID != nil {
		lid = *leaderID
	}
	h.AuditLog.LeaderChanged(ctx, r, actor.ID, id, lid)
	apierrors.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "leader_id": leaderID})
}
