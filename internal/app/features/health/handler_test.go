package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/templehub/internal/app/features/health"
	"github.com/dalemusser/templehub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type healthBody struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), zap.NewNop())
	handler.Started = time.Now().Add(-time.Minute)

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("body = %+v", body)
	}
	if body.UptimeSeconds < 60 {
		t.Errorf("uptime_seconds = %d, want >= 60", body.UptimeSeconds)
	}
}

func TestServe_DatabaseDisconnected(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testutil.DefaultTestURI))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := client.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	handler := health.NewHandler(client, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	var body healthBody
	testutil.DecodeJSON(t, rec, &body)
	if body.Status != "error" || body.Database != "disconnected" {
		t.Errorf("body = %+v", body)
	}
}
