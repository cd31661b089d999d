// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/templehub/internal/domain/models"
	"go.uber.org/zap"
)

// SessionUser is the member attached to an authenticated request.
type SessionUser struct {
	ID     int64
	Name   string
	Phone  string
	Role   models.Role
	Status string
}

// UserFetcher loads fresh member data for a verified access token, so role
// and status changes take effect on the next request. It returns nil when
// the member does not exist or may not sign in.
type UserFetcher interface {
	FetchUser(ctx context.Context, memberID int64) *SessionUser
}

// SessionManager verifies access tokens on incoming requests and exposes the
// guard middleware.
type SessionManager struct {
	tokens  *TokenService
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds a SessionManager around a TokenService.
func NewSessionManager(tokens *TokenService, logger *zap.Logger) *SessionManager {
	return &SessionManager{tokens: tokens, log: logger}
}

// SetUserFetcher installs the member loader used by LoadSessionUser.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// Tokens returns the underlying TokenService.
func (m *SessionManager) Tokens() *TokenService { return m.tokens }

type ctxKey string

const sessionKey ctxKey = "session"

// CurrentSession returns the request's session. Requests that never passed
// through LoadSessionUser get a fresh Unauthenticated session.
func CurrentSession(r *http.Request) *Session {
	if s, ok := r.Context().Value(sessionKey).(*Session); ok && s != nil {
		return s
	}
	return NewSession()
}

// CurrentUser returns the member & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u := CurrentSession(r).User()
	return u, u != nil
}

// LoadSessionUser attaches a Session to every request and authenticates it
// when a bearer token is present. It never rejects a request; the guards do.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := NewSession()
		if token := BearerToken(r); token != "" && m.fetcher != nil {
			_ = sess.Begin()
			memberID, err := m.tokens.VerifyAccess(token)
			if err != nil {
				sess.Fail()
			} else if u := m.fetcher.FetchUser(r.Context(), memberID); u == nil {
				m.log.Debug("access token for unknown or inactive member", zap.Int64("member_id", memberID))
				sess.Fail()
			} else {
				_ = sess.Succeed(u)
			}
		}
		next.ServeHTTP(w, withSession(r, sess))
	})
}

// RequireSignedIn rejects requests without an authenticated member with 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects unauthenticated requests with 401 and members below
// the minimum role with 403.
func (m *SessionManager) RequireRole(minimum models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !u.Role.Valid() || u.Role < minimum {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer …" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// WithTestUser returns a request carrying an authenticated session for u.
// Tests use it to bypass token verification.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	sess := NewSession()
	_ = sess.Begin()
	_ = sess.Succeed(u)
	return withSession(r, sess)
}

func withSession(r *http.Request, s *Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, s))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
