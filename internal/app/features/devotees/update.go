package devotees

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/authz"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.uber.org/zap"
)

// updateInput is the writable subset of a member. Fields left out of the
// body stay unchanged. Unknown keys, including phone, role_id and
// leader_id, are ignored.
type updateInput struct {
	ID int64 `json:"id" validate:"required,gt=0"`

	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Email       *string `json:"email" validate:"omitnil,max=254"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"dob"`
	Occupation  *string `json:"occupation" validate:"omitnil,max=100"`
	Skills      *string `json:"skills" validate:"omitnil,max=500"`
	AddressLine *string `json:"address_line" validate:"omitnil,max=200"`
	City        *string `json:"city" validate:"omitnil,max=100"`
	State       *string `json:"state" validate:"omitnil,max=100"`
	Country     *string `json:"country" validate:"omitnil,max=100"`
	Pincode     *string `json:"pincode" validate:"omitnil,max=12"`

	SpouseName                *string `json:"spouse_name" validate:"omitnil,max=100"`
	SpouseDateOfBirth         *string `json:"spouse_dob"`
	SpouseMarriageAnniversary *string `json:"spouse_marriage_anniversary"`
	ChildrenCount             *int    `json:"children_count" validate:"omitnil,gte=0,lte=50"`
	TaxID                     *string `json:"tax_id" validate:"omitnil,max=10"`

	SpiritualLevelID *int    `json:"spiritual_level_id" validate:"omitnil,gt=0"`
	SourceID         *int    `json:"source_id" validate:"omitnil,gt=0"`
	CounsellorID     *int64  `json:"counsellor_id" validate:"omitnil,gt=0"`
	ReferredByID     *int64  `json:"referred_by_id" validate:"omitnil,gt=0"`
	Status           *string `json:"status" validate:"omitnil,oneof=active inactive deceased"`
}

func trimmed(p *string, clean func(string) string) *string {
	if p == nil {
		return nil
	}
	v := clean(*p)
	return &v
}

// normalize cleans text fields in place before validation.
func (in *updateInput) normalize() {
	in.Name = trimmed(in.Name, normalize.Name)
	in.Email = trimmed(in.Email, normalize.Email)
	in.Status = trimmed(in.Status, normalize.Status)
	in.Gender = trimmed(in.Gender, normalize.Gender)
	for _, p := range []**string{
		&in.Occupation, &in.Skills, &in.AddressLine, &in.City,
		&in.State, &in.Country, &in.Pincode, &in.SpouseName, &in.TaxID,
	} {
		*p = trimmed(*p, strings.TrimSpace)
	}
}

// patch validates in and converts it to a store patch.
func (in *updateInput) patch() (members.Patch, error) {
	fields := inputval.FieldErrors{}
	if err := inputval.Struct(in); err != nil {
		fe, ok := inputval.AsFieldErrors(err)
		if !ok {
			return members.Patch{}, err
		}
		fields = fe
	}
	if in.Email != nil && *in.Email != "" && !inputval.IsValidEmail(*in.Email) {
		fields["email"] = "must be a valid email address"
	}
	if in.Gender != nil && *in.Gender != "" && !slices.Contains(models.Genders, *in.Gender) {
		fields["gender"] = "must be one of: " + strings.Join(models.Genders, " ")
	}
	if in.ReferredByID != nil && *in.ReferredByID == in.ID {
		fields["referred_by_id"] = "cannot refer yourself"
	}

	date := func(key string, raw *string) *time.Time {
		if raw == nil || strings.TrimSpace(*raw) == "" {
			return nil
		}
		t, err := normalize.Date(*raw)
		if err != nil {
			fields[key] = "must be a date"
			return nil
		}
		return &t
	}
	p := members.Patch{
		Name:                      in.Name,
		Email:                     in.Email,
		Gender:                    in.Gender,
		DateOfBirth:               date("dob", in.DateOfBirth),
		Occupation:                in.Occupation,
		Skills:                    in.Skills,
		AddressLine:               in.AddressLine,
		City:                      in.City,
		State:                     in.State,
		Country:                   in.Country,
		Pincode:                   in.Pincode,
		SpouseName:                in.SpouseName,
		SpouseDateOfBirth:         date("spouse_dob", in.SpouseDateOfBirth),
		SpouseMarriageAnniversary: date("spouse_marriage_anniversary", in.SpouseMarriageAnniversary),
		ChildrenCount:             in.ChildrenCount,
		TaxID:                     in.TaxID,
		SpiritualLevelID:          in.SpiritualLevelID,
		SourceID:                  in.SourceID,
		CounsellorID:              in.CounsellorID,
		ReferredByID:              in.ReferredByID,
		Status:                    in.Status,
	}
	if len(fields) > 0 {
		return members.Patch{}, fields
	}
	return p, nil
}

// ServeUpdate applies a partial profile update. The body's id names the
// target; editing anyone but yourself needs MinEditOthers, and so does
// changing a status.
//
// POST /devotee
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor := memberpolicy.Actor(r)
	if actor == nil {
		apierrors.Unauthorized(w)
		return
	}

	var in updateInput
	if err := apierrors.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	if in.ID <= 0 {
		apierrors.Invalid(w, inputval.FieldErrors{"id": "is required"})
		return
	}
	if !memberpolicy.CanEdit(actor, in.ID) {
		apierrors.Forbidden(w)
		return
	}
	if in.Status != nil && !authz.AtLeast(actor.Role, authz.MinEditOthers) {
		apierrors.Forbidden(w)
		return
	}

	in.normalize()
	p, err := in.patch()
	if err != nil {
		if fe, ok := inputval.AsFieldErrors(err); ok {
			apierrors.Invalid(w, fe)
			return
		}
		h.ErrLog.LogServerError(w, r, "validate member update failed", err)
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	if err := h.Members.Update(ctx, in.ID, p, actor.ID); err != nil {
		if errors.Is(err, members.ErrNotFound) {
			apierrors.NotFound(w)
			return
		}
		h.ErrLog.LogServerError(w, r, "member update failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventMemberUpdated, actor.ID, in.ID, nil)
	h.Log.Info("member updated", zap.Int64("member_id", in.ID), zap.Int64("actor_id", actor.ID))

	d, err := h.Members.Detail(ctx, in.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload member failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, d)
}
