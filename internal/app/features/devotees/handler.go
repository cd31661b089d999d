// Package devotees serves the member directory: search, detail, profile
// edits, notes, role and leader changes, referrals, insights and bulk
// import.
package devotees

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/features/shared/bulk"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// MaxNoteLength bounds internal notes, in characters.
const MaxNoteLength = 2000

type Handler struct {
	Members  *members.Store
	Import   *bulk.Importer
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(store *members.Store, pipeline *ingest.Pipeline, audit *auditlog.Logger, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Members: store,
		Import: &bulk.Importer{
			Kind:     ingest.KindMembers,
			Key:      "devotees",
			Run:      pipeline.ImportMembers,
			AuditLog: audit,
			ErrLog:   errLog,
			Log:      logger,
		},
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func shortCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Short())
}

// loadTarget fetches the member a request acts on, writing 404 or 500 when
// it cannot.
func (h *Handler) loadTarget(ctx context.Context, w http.ResponseWriter, r *http.Request, id int64) (*models.Member, bool) {
	m, err := h.Members.GetByID(ctx, id)
	if errors.Is(err, members.ErrNotFound) {
		apierrors.NotFound(w)
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err)
		return nil, false
	}
	return m, true
}
