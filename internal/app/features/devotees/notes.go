package devotees

import (
	"errors"
	"net/http"
	"unicode/utf8"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
)

type notesInput struct {
	InternalNote *string `json:"internal_note"`
}

// ServeNotes replaces a member's internal note. Any signed-in member may
// write it; markup is stripped.
//
// PUT /devotees/{id}/notes
func (h *Handler) ServeNotes(w http.ResponseWriter, r *http.Request) {
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

	var in notesInput
	if err := apierrors.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if in.InternalNote == nil {
		apierrors.Invalid(w, inputval.FieldErrors{"internal_note": "is required"})
		return
	}
	note := htmlsanitize.PlainText(*in.InternalNote)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		apierrors.Invalid(w, inputval.FieldErrors{"internal_note": "must be at most 2000 characters"})
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	if err := h.Members.UpdateNote(ctx, id, note, actor.ID); err != nil {
		if errors.Is(err, members.ErrNotFound) {
			apierrors.NotFound(w)
			return
		}
		h.ErrLog.LogServerError(w, r, "update note failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventNotesUpdated, actor.ID, id, nil)
	apierrors.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "internal_note": note})
}
