package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	apierrors "github.com/dalemusser/templehub/internal/app/features/errors"
	"github.com/dalemusser/templehub/internal/app/features/login"
	"github.com/dalemusser/templehub/internal/app/store/lookups"
	"github.com/dalemusser/templehub/internal/app/store/members"
	"github.com/dalemusser/templehub/internal/app/system/auth"
	"github.com/dalemusser/templehub/internal/app/system/otp"
	"github.com/dalemusser/templehub/internal/app/system/ratelimit"
	"github.com/dalemusser/templehub/internal/domain/models"
	"github.com/dalemusser/templehub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeOTP maps tokens to verified phone numbers.
type fakeOTP map[string]string

func (f fakeOTP) Verify(_ context.Context, token string) (string, error) {
	if phone, ok := f[token]; ok {
		return phone, nil
	}
	return "", otp.ErrNotVerified
}

func newTestHandler(t *testing.T, db *mongo.Database, verifier otp.Verifier) *login.Handler {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:   []byte("test-access-secret-0123456789abcdef"),
		RenewalHashKey: []byte("test-renewal-hash-key-0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return &login.Handler{
		Members: members.New(db),
		Lookups: lookups.New(db),
		OTP:     verifier,
		Tokens:  tokens,
		ErrLog:  apierrors.NewErrorLogger(zap.NewNop()),
		Log:     zap.NewNop(),
	}
}

func loginRequest(token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func renewalCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s cookie set", name)
	return nil
}

func TestHandleLogin_ProvisionsNewMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, fakeOTP{"tok": "919812345678"})
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := lookups.New(db).Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ref := fixtures.CreateMember(ctx, "Referrer", "+919000000001", models.RoleMember)

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginRequest("tok", `{"ref": `+strconv.FormatInt(ref.ID, 10)+`, "source": "Festival"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	memberID, err := h.Tokens.VerifyAccess(resp.AccessToken)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}

	c := renewalCookie(t, rec, h.Tokens.CookieName())
	if !c.HttpOnly || c.SameSite != http.SameSiteStrictMode || c.Path != "/auth" {
		t.Errorf("renewal cookie attributes: %+v", c)
	}

	m, err := h.Members.GetByID(ctx, memberID)
	if err != nil {
		t.Fatalf("provisioned member not found: %v", err)
	}
	if m.Phone != "+919812345678" || m.RoleID != models.RoleMember || m.Status != models.StatusActive {
		t.Errorf("unexpected member: %+v", m)
	}
	if m.ReferredByID == nil || *m.ReferredByID != ref.ID {
		t.Errorf("ReferredByID = %v, want %d", m.ReferredByID, ref.ID)
	}
	if m.SourceID == nil || *m.SourceID != 3 {
		t.Errorf("SourceID = %v, want 3", m.SourceID)
	}
}

func TestHandleLogin_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, fakeOTP{})

	for _, token := range []string{"", "bogus"} {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, loginRequest(token, ""))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rec.Code)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Errorf("token %q: cookie set on failure", token)
		}
	}
}

func TestHandleLogin_DeceasedRefused(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, fakeOTP{"tok": "+919000000009"})
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateMember(ctx, "Late", "+919000000009", models.RoleMember, testutil.WithStatus(models.StatusDeceased))

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginRequest("tok", ""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, fakeOTP{})
	h.Limiter = ratelimit.New(1, time.Minute)

	first := httptest.NewRecorder()
	h.HandleLogin(first, loginRequest("bogus", ""))
	second := httptest.NewRecorder()
	h.HandleLogin(second, loginRequest("bogus", ""))

	if first.Code != http.StatusUnauthorized {
		t.Errorf("first status = %d, want 401", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", second.Code)
	}
}

func TestHandleRefresh(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, fakeOTP{"tok": "+919000000020"})

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, loginRequest("tok", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookie := renewalCookie(t, rec, h.Tokens.CookieName())

	t.Run("valid cookie rotates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.AddCookie(cookie)
		out := httptest.NewRecorder()
		h.HandleRefresh(out, req)
		if out.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", out.Code, out.Body.String())
		}
		var resp struct {
			AccessToken string `json:"accessToken"`
		}
		testutil.DecodeJSON(t, out, &resp)
		if _, err := h.Tokens.VerifyAccess(resp.AccessToken); err != nil {
			t.Errorf("rotated access token invalid: %v", err)
		}
		renewalCookie(t, out, h.Tokens.CookieName())
	})

	t.Run("missing cookie", func(t *testing.T) {
		out := httptest.NewRecorder()
		h.HandleRefresh(out, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
		if out.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", out.Code)
		}
	})

	t.Run("tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value + "x"})
		out := httptest.NewRecorder()
		h.HandleRefresh(out, req)
		if out.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", out.Code)
		}
	})
}
