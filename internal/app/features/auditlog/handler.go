// internal/app/features/auditlog/handler.go
package auditlog

import (
	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"go.uber.org/zap"
)

type Handler struct {
	Audit   *audit.Store
	Members *members.Store
	Log     *zap.Logger
	ErrLog  *apierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler.
func NewHandler(events *audit.Store, ms *members.Store, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:   events,
		Members: ms,
		Log:     logger,
		ErrLog:  errLog,
	}
}
