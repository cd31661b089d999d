// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/policy/reportpolicy"
	"github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/system/inputval"
	"github.com/dalemusser/templehub/internal/app/system/reportrange"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// MaxTopDonors caps the leaderboard limit parameter.
const MaxTopDonors = 100

// Handler owns the donation report endpoints. Named date buckets are
// resolved against today in Loc.
type Handler struct {
	Donations *donations.Store
	Loc       *time.Location
	Now       func() time.Time
	ErrLog    *apierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(store *donations.Store, loc *time.Location, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Donations: store,
		Loc:       loc,
		Now:       time.Now,
		ErrLog:    errLog,
		Log:       logger,
	}
}

// dateParam accepts both dateRange and range.
func dateParam(r *http.Request) string {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("dateRange")); v != "" {
		return v
	}
	return strings.TrimSpace(q.Get("range"))
}

// ranges parses the request's date and amount filters, writing 403 or 400
// itself when it returns false.
func (h *Handler) ranges(w http.ResponseWriter, r *http.Request) (reportrange.DateRange, reportrange.AmountRange, bool) {
	if !reportpolicy.CanViewReports(r) {
		apierrors.Forbidden(w)
		return reportrange.DateRange{}, reportrange.AmountRange{}, false
	}
	fe := inputval.FieldErrors{}
	dr, err := reportrange.ParseDate(dateParam(r), h.Now(), h.Loc)
	if err != nil {
		fe["dateRange"] = err.Error()
	}
	ar, err := reportrange.ParseAmount(r.URL.Query().Get("amountRange"))
	if err != nil {
		fe["amountRange"] = err.Error()
	}
	if len(fe) > 0 {
		apierrors.Invalid(w, fe)
		return reportrange.DateRange{}, reportrange.AmountRange{}, false
	}
	return dr, ar, true
}

func reportCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Long())
}
