// Package login exchanges a phone-verification token for a session and
// rotates sessions from the renewal cookie.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/store/audit"
	"github.com/dalemusser/templehub/internal/app/store/lookups"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auditlog"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/metrics"
	"github.com/dalemusser/templehub/internal/app/system/normalize"
	"github.com/dalemusser/templehub/internal/app/system/otp"
	"github.com/dalemusser/templehub/internal/app/system/ratelimit"
	"github.com/dalemusser/templehub/internal/app/system/timeouts"
	"github.com/dalemusser/templehub/internal/domain/models"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 10

// Handler serves POST /login and POST /auth/refresh.
type Handler struct {
	Members  *members.Store
	Lookups  *lookups.Store
	OTP      otp.Verifier
	Tokens   *auth.TokenService
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics
	AuditLog *auditlog.Logger
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

type loginRequest struct {
	Ref    any `json:"ref"`
	Source any `json:"source"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleLogin verifies the bearer OTP token, finds or provisions the member
// owning the verified phone, and issues a session.
//
// POST /login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, nil, "rate limited")
		h.countLogin("rate_limited")
		apierrors.TooManyRequests(w)
		return
	}

	token := auth.BearerToken(r)
	if token == "" {
		h.countLogin("failure")
		apierrors.Unauthorized(w)
		return
	}

	var body loginRequest
	if r.ContentLength != 0 {
		if err := apierrors.DecodeJSON(w, r, &body, maxBodyBytes); err != nil {
			h.ErrLog.LogBadRequest(w, r, "login body decode failed", err, "invalid request body")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	verified, err := h.OTP.Verify(ctx, token)
	if err != nil {
		if !errors.Is(err, otp.ErrNotVerified) {
			h.Log.Warn("otp verification failed", zap.Error(err))
		}
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUnverified, nil, "token not verified")
		h.countLogin("failure")
		apierrors.Unauthorized(w)
		return
	}
	phone, ok := normalize.VerifiedPhone(verified)
	if !ok {
		h.Log.Warn("otp provider returned an unusable phone number")
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUnverified, nil, "unusable phone")
		h.countLogin("failure")
		apierrors.Unauthorized(w)
		return
	}

	signup := members.Signup{
		ReferredByID: h.resolveReferrer(ctx, body.Ref),
		SourceID:     h.resolveSource(ctx, body.Source),
	}
	m, outcome, err := h.Members.EnsureForLogin(ctx, phone, signup)
	if errors.Is(err, members.ErrDeceased) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedDeceased, &m.ID, "member is deceased")
		h.countLogin("deceased")
		apierrors.Unauthorized(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "ensure member for login failed", err)
		return
	}

	access, _, err := h.Tokens.IssueSession(w, m.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue session failed", err)
		return
	}

	event := audit.EventLoginSuccess
	switch outcome {
	case members.LoginProvisioned:
		event = audit.EventLoginProvisioned
	case members.LoginActivated:
		event = audit.EventLoginActivated
	}
	h.AuditLog.LoginSuccess(ctx, r, event, m.ID)
	h.countLogin("success")
	apierrors.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: access})
}

// HandleRefresh rotates both credentials from the renewal cookie. The
// member must still exist and not be deceased.
//
// POST /auth/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := r.Cookie(h.Tokens.CookieName())
	if err != nil {
		h.AuditLog.SessionRenewalRejected(ctx, r)
		apierrors.Unauthorized(w)
		return
	}
	memberID, err := h.Tokens.VerifyRenewal(c.Value)
	if err != nil {
		h.AuditLog.SessionRenewalRejected(ctx, r)
		apierrors.Unauthorized(w)
		return
	}
	m, err := h.Members.GetByID(ctx, memberID)
	if err != nil && !errors.Is(err, members.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "load member for refresh failed", err)
		return
	}
	if m == nil || m.Status == models.StatusDeceased {
		h.Tokens.EndSession(w)
		h.AuditLog.SessionRenewalRejected(ctx, r)
		apierrors.Unauthorized(w)
		return
	}

	access, _, _, err := h.Tokens.Renew(w, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "renew session failed", err)
		return
	}
	h.AuditLog.SessionRenewed(ctx, r, memberID)
	apierrors.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: access})
}

// resolveReferrer returns the referrer id when ref names an existing member.
func (h *Handler) resolveReferrer(ctx context.Context, ref any) *int64 {
	s := strings.TrimSpace(fmt.Sprint(ref))
	if ref == nil || s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	if _, err := h.Members.GetByID(ctx, id); err != nil {
		return nil
	}
	return &id
}

// resolveSource accepts a lead-source id or name.
func (h *Handler) resolveSource(ctx context.Context, src any) *int {
	if src == nil || h.Lookups == nil {
		return nil
	}
	e, err := h.Lookups.Resolve(ctx, lookups.SourcesCollection, fmt.Sprint(src))
	if err != nil {
		return nil
	}
	return &e.ID
}

func (h *Handler) countLogin(outcome string) {
	if h.Metrics != nil {
		h.Metrics.Login(outcome)
	}
}
