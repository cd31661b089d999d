package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/templehub/internal/testutil"
	"github.com/dalemusser/waffle/config"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := validConfig()
	cfg.AllowedOrigins = []string{"https://app.example.test"}
	cfg.RenewalCookieName = "templehub-renewal"

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, DBDeps{MongoClient: db.Client(), MongoDatabase: db}, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	t.Cleanup(stopWorkers)
	return h
}

func TestBuildHandler_Routes(t *testing.T) {
	h := testHandler(t)

	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodPost, "/auth/logout", http.StatusOK},
		{http.MethodGet, "/devotees?query=a", http.StatusUnauthorized},
		{http.MethodGet, "/devotee?devoteeId=1", http.StatusUnauthorized},
		{http.MethodGet, "/organization", http.StatusUnauthorized},
		{http.MethodGet, "/donations", http.StatusUnauthorized},
		{http.MethodGet, "/reports/donations-summary", http.StatusUnauthorized},
		{http.MethodGet, "/feed", http.StatusUnauthorized},
		{http.MethodGet, "/audit", http.StatusUnauthorized},
		{http.MethodGet, "/no-such-page", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
		if rec.Code != tc.want {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.target, rec.Code, tc.want)
		}
	}
}

func TestBuildHandler_CORS(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.test" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q", got)
	}
}
