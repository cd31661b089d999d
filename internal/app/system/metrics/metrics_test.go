package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordImport(t *testing.T) {
	m := New()
	m.RecordImport(ingest.KindMembers, ingest.Report{
		Inserted:         3,
		SkippedDuplicate: 2,
		SkippedInvalid:   []string{"98765"},
		Dropped:          1,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("members")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importRows.WithLabelValues("members", "inserted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.importRows.WithLabelValues("members", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("members", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("members", "dropped")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Login("success")
	m.FeedPost("", true)

	h := m.Middleware(m.Handler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `templehub_logins_total{outcome="success"} 1`), body)
	assert.True(t, strings.Contains(body, `templehub_feed_posts_total{media="text",outcome="success"} 1`), body)
}

func TestMiddlewareLabelsRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/devotees/{id}/notes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devotees/42/notes", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests, "templehub_http_request_duration_seconds"))
	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, out.Body.String(), `route="/devotees/{id}/notes"`)
}
