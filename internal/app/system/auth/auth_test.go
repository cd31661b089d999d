package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapFetcher map[int64]*SessionUser

func (m mapFetcher) FetchUser(_ context.Context, id int64) *SessionUser { return m[id] }

func TestSession_Transitions(t *testing.T) {
	s := NewSession()
	assert.Equal(t, Unauthenticated, s.State())
	assert.Error(t, s.Succeed(&SessionUser{ID: 1}))

	require.NoError(t, s.Begin())
	assert.Equal(t, Authenticating, s.State())
	assert.Error(t, s.Begin())
	assert.Nil(t, s.User())

	require.NoError(t, s.Succeed(&SessionUser{ID: 1}))
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, int64(1), s.User().ID)

	s.Fail()
	assert.Equal(t, Unauthenticated, s.State())
	assert.Nil(t, s.User())
}

func serveGuarded(m *SessionManager, guard func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	m.LoadSessionUser(guard(ok)).ServeHTTP(rec, req)
	return rec
}

func TestLoadSessionUser_BearerToken(t *testing.T) {
	tokens := newTestTokens(t)
	m := NewSessionManager(tokens, zap.NewNop())
	m.SetUserFetcher(mapFetcher{
		3: {ID: 3, Name: "Volunteer", Role: models.RoleVolunteer, Status: models.StatusActive},
	})

	access, err := tokens.issueAccess(3)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusOK, serveGuarded(m, m.RequireSignedIn, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusForbidden, serveGuarded(m, m.RequireRole(models.RoleLeader), req).Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serveGuarded(m, m.RequireSignedIn, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, serveGuarded(m, m.RequireRole(models.RoleMember), req).Code)
}

func TestLoadSessionUser_UnknownMember(t *testing.T) {
	tokens := newTestTokens(t)
	m := NewSessionManager(tokens, zap.NewNop())
	m.SetUserFetcher(mapFetcher{})

	access, err := tokens.issueAccess(99)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, serveGuarded(m, m.RequireSignedIn, req).Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", BearerToken(req))
	req.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", BearerToken(req))
	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", BearerToken(req))
}
