// Package donations serves the donation ledger: listing, manual entry,
// corrections and bulk import.
package donations

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/features/shared/bulk"
	donationstore "github.com/dalemusser/templehub/internal/app/store/donations"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 64 << 10

	// DefaultPageSize and MaxPageSize bound GET /donations.
	DefaultPageSize = 50
	MaxPageSize     = 500
)

type Handler struct {
	Donations *donationstore.Store
	Import    *bulk.Importer
	// CallingCode prefixes bare national numbers when the signed-in
	// member's own phone does not yield one.
	CallingCode string
	AuditLog    *auditlog.Logger
	ErrLog      *apierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(store *donationstore.Store, pipeline *ingest.Pipeline, callingCode string, audit *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if callingCode == "" {
		callingCode = normalize.DefaultCallingCode
	}
	return &Handler{
		Donations: store,
		Import: &bulk.Importer{
			Kind:     ingest.KindDonations,
			Key:      "donations",
			Run:      pipeline.ImportDonations,
			AuditLog: audit,
			ErrLog:   errLog,
			Log:      logger,
		},
		CallingCode: callingCode,
		AuditLog:    audit,
		ErrLog:      errLog,
		Log:         logger,
	}
}

func shortCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Short())
}
