// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	Tokens   *auth.TokenService
	AuditLog *auditlog.Logger
}

func NewHandler(tokens *auth.TokenService, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Tokens:   tokens,
		AuditLog: audit,
	}
}

// ServeLogout clears the renewal cookie. It always succeeds; an access
// token issued earlier stays valid until it expires.
//
// POST /auth/logout
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	var memberID int64
	if u, ok := auth.CurrentUser(r); ok {
		memberID = u.ID
	} else if c, err := r.Cookie(h.Tokens.CookieName()); err == nil {
		// no bearer token; the cookie still says who is leaving
		memberID, _ = h.Tokens.VerifyRenewal(c.Value)
	}

	h.Tokens.EndSession(w)
	if memberID > 0 {
		h.AuditLog.Logout(r.Context(), r, memberID)
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
