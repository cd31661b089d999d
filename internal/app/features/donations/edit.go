package donations

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/templehub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	donationstore "github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// donationInput is the body of POST /donations and PUT /donations/{id}.
// On update, omitted fields stay unchanged and receipt_number is ignored.
type donationInput struct {
	ReceiptNumber *string `json:"receipt_number" validate:"omitnil,min=1,max=50"`
	Phone         *string `json:"phone"`
	Name          *string `json:"name" validate:"omitnil,max=100"`
	Amount        *int64  `json:"amount" validate:"omitnil,gte=0"`
	PaymentMode   *string `json:"payment_mode" validate:"omitnil,max=50"`
	Date          *string `json:"date"`
	Campaign      *string `json:"campaign" validate:"omitnil,max=100"`
	InternalNote  *string `json:"internal_note" validate:"omitnil,max=2000"`
}

// parsed is donationInput after normalization.
type parsed struct {
	phone *string
	date  *time.Time
}

func (h *Handler) callingCode(actor string) string {
	if c := normalize.CallingCodeOf(actor); c != "" {
		return c
	}
	return h.CallingCode
}

// clean normalizes in and returns field errors. required lists the keys
// that must be present.
func (in *donationInput) clean(code string, required ...string) (parsed, inputval.FieldErrors) {
	fe := inputval.FieldErrors{}
	var out parsed

	if in.ReceiptNumber != nil {
		v := strings.TrimSpace(*in.ReceiptNumber)
		in.ReceiptNumber = &v
	}
	if in.Name != nil {
		v := normalize.Name(*in.Name)
		in.Name = &v
	}
	if in.InternalNote != nil {
		v := htmlsanitize.PlainText(*in.InternalNote)
		in.InternalNote = &v
	}
	if err := inputval.Struct(in); err != nil {
		if vfe, ok := inputval.AsFieldErrors(err); ok {
			fe = vfe
		}
	}
	if in.Phone != nil {
		p, ok := normalize.Phone(*in.Phone, code)
		if !ok {
			fe["phone"] = "must be a valid phone number"
		} else {
			out.phone = &p
		}
	}
	if in.Date != nil {
		d, err := normalize.Date(*in.Date)
		if err != nil {
			fe["date"] = "must be a date"
		} else {
			out.date = &d
		}
	}

	present := map[string]bool{
		"receipt_number": in.ReceiptNumber != nil,
		"phone":          in.Phone != nil,
		"amount":         in.Amount != nil,
		"date":           in.Date != nil,
	}
	for _, k := range required {
		if !present[k] {
			fe[k] = "is required"
		}
	}
	return out, fe
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ServeCreate records one donation entered by hand.
//
// POST /donations
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor := memberpolicy.Actor(r)
	if actor == nil {
		apierrors.Unauthorized(w)
		return
	}
	if !reportpolicy.CanEditDonation(r) {
		apierrors.Forbidden(w)
		return
	}
	var in donationInput
	if err := apierrors.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	p, fe := in.clean(h.callingCode(actor.Phone), "receipt_number", "phone", "amount", "date")
	if len(fe) > 0 {
		apierrors.Invalid(w, fe)
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	d, err := h.Donations.Create(ctx, models.Donation{
		ReceiptNumber: *in.ReceiptNumber,
		Phone:         *p.phone,
		Name:          deref(in.Name),
		Amount:        *in.Amount,
		PaymentMode:   deref(in.PaymentMode),
		Date:          *p.date,
		Campaign:      deref(in.Campaign),
		InternalNote:  deref(in.InternalNote),
		CreatedBy:     &actor.ID,
		UpdatedBy:     &actor.ID,
	})
	if errors.Is(err, donationstore.ErrDuplicateReceipt) {
		apierrors.Invalid(w, inputval.FieldErrors{"receipt_number": "is already recorded"})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create donation failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventDonationCreated, actor.ID, 0, map[string]string{
		"donation_id":    strconv.FormatInt(d.ID, 10),
		"receipt_number": d.ReceiptNumber,
	})
	h.Log.Info("donation recorded", zap.Int64("donation_id", d.ID), zap.Int64("actor_id", actor.ID))
	apierrors.WriteJSON(w, http.StatusCreated, d)
}

// ServeUpdate corrects an existing donation. The receipt number is fixed.
//
// PUT /donations/{id}
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor := memberpolicy.Actor(r)
	if actor == nil {
		apierrors.Unauthorized(w)
		return
	}
	if !reportpolicy.CanEditDonation(r) {
		apierrors.Forbidden(w)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(w, "invalid donation id")
		return
	}
	var in donationInput
	if err := apierrors.DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		apierrors.BadRequest(w, "invalid JSON body")
		return
	}
	in.ReceiptNumber = nil
	p, fe := in.clean(h.callingCode(actor.Phone))
	if len(fe) > 0 {
		apierrors.Invalid(w, fe)
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	patch := donationstore.Patch{
		Phone:        p.phone,
		Name:         in.Name,
		Amount:       in.Amount,
		PaymentMode:  in.PaymentMode,
		Date:         p.date,
		Campaign:     in.Campaign,
		InternalNote: in.InternalNote,
	}
	if err := h.Donations.Update(ctx, id, patch, actor.ID); err != nil {
		if errors.Is(err, donationstore.ErrNotFound) {
			apierrors.NotFound(w)
			return
		}
		h.ErrLog.LogServerError(w, r, "update donation failed", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventDonationUpdated, actor.ID, 0, map[string]string{
		"donation_id": strconv.FormatInt(id, 10),
	})

	d, err := h.Donations.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload donation failed", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, d)
}
