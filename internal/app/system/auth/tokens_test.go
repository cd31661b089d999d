package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{
		AccessSecret:   []byte("access-secret-for-tests-0123456789"),
		RenewalHashKey: []byte("renewal-hash-key-for-tests-0123456789abcdef"),
	})
	require.NoError(t, err)
	return s
}

func TestNewTokenService_RequiresKeys(t *testing.T) {
	_, err := NewTokenService(TokenConfig{RenewalHashKey: []byte("x")})
	assert.Error(t, err)

	_, err = NewTokenService(TokenConfig{AccessSecret: []byte("x")})
	assert.Error(t, err)

	_, err = NewTokenService(TokenConfig{
		AccessSecret:    []byte("x"),
		RenewalHashKey:  []byte("y"),
		RenewalBlockKey: []byte("short"),
	})
	assert.Error(t, err)
}

func TestIssueSession_RoundTrip(t *testing.T) {
	s := newTestTokens(t)
	rec := httptest.NewRecorder()

	access, renewal, err := s.IssueSession(rec, 42)
	require.NoError(t, err)

	id, err := s.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = s.VerifyRenewal(renewal)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "templehub-renewal", c.Name)
	assert.Equal(t, renewal, c.Value)
	assert.Equal(t, "/auth", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int(DefaultRenewalTTL/time.Second), c.MaxAge)
}

func TestVerifyAccess_Expired(t *testing.T) {
	s := newTestTokens(t)
	issued := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	access, err := s.issueAccess(7)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(DefaultAccessTTL - time.Second) }
	_, err = s.VerifyAccess(access)
	assert.NoError(t, err)

	s.now = func() time.Time { return issued.Add(DefaultAccessTTL + time.Minute) }
	_, err = s.VerifyAccess(access)
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestVerifyAccess_RejectsForeignAndMalformed(t *testing.T) {
	s := newTestTokens(t)
	other, err := NewTokenService(TokenConfig{
		AccessSecret:   []byte("a-different-secret"),
		RenewalHashKey: []byte("a-different-hash-key"),
	})
	require.NoError(t, err)

	foreign, err := other.issueAccess(1)
	require.NoError(t, err)

	for _, tok := range []string{"", "not-a-jwt", foreign} {
		_, err := s.VerifyAccess(tok)
		assert.ErrorIs(t, err, ErrInvalidOrExpired, "token %q", tok)
	}
}

func TestVerifyRenewal_RejectsTampered(t *testing.T) {
	s := newTestTokens(t)
	renewal, err := s.issueRenewal(5)
	require.NoError(t, err)

	_, err = s.VerifyRenewal(renewal + "x")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)

	_, err = s.VerifyRenewal("")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestRenew_RotatesCredentials(t *testing.T) {
	s := newTestTokens(t)
	_, renewal, err := s.IssueSession(httptest.NewRecorder(), 9)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: s.CookieName(), Value: renewal})
	rec := httptest.NewRecorder()

	access, next, id, err := s.Renew(rec, req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.NotEqual(t, renewal, next)

	got, err := s.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)

	// The rotated-out token keeps working until it expires.
	_, err = s.VerifyRenewal(renewal)
	assert.NoError(t, err)
}

func TestRenew_NoCookie(t *testing.T) {
	s := newTestTokens(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	_, _, _, err := s.Renew(httptest.NewRecorder(), req)
	assert.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestEndSession_ExpiresCookie(t *testing.T) {
	s := newTestTokens(t)
	rec := httptest.NewRecorder()
	s.EndSession(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, s.CookieName(), cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}
