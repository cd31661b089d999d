// Package metrics exposes Prometheus counters for imports, logins and feed
// posts on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/templehub/internal/app/system/ingest"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors.
type Metrics struct {
	reg *prometheus.Registry

	importRows *prometheus.CounterVec
	imports    *prometheus.CounterVec
	logins     *prometheus.CounterVec
	feedPosts  *prometheus.CounterVec
	requests   *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "templehub",
			Name:      "import_rows_total",
			Help:      "Bulk import rows by kind and outcome.",
		}, []string{"kind", "outcome"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "templehub",
			Name:      "imports_total",
			Help:      "Completed bulk imports by kind.",
		}, []string{"kind"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "templehub",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		feedPosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "templehub",
			Name:      "feed_posts_total",
			Help:      "Feed posts by media type and outcome.",
		}, []string{"media", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "templehub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.reg.MustRegister(
		m.importRows, m.imports, m.logins, m.feedPosts, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry (tests read from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// RecordImport implements ingest.Recorder.
func (m *Metrics) RecordImport(kind string, r ingest.Report) {
	m.imports.WithLabelValues(kind).Inc()
	m.importRows.WithLabelValues(kind, "inserted").Add(float64(r.Inserted))
	m.importRows.WithLabelValues(kind, "duplicate").Add(float64(r.SkippedDuplicate))
	m.importRows.WithLabelValues(kind, "invalid").Add(float64(len(r.SkippedInvalid)))
	m.importRows.WithLabelValues(kind, "dropped").Add(float64(r.Dropped))
}

// Login counts a login attempt. outcome is "success", "failure",
// "rate_limited" or "deceased".
func (m *Metrics) Login(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// FeedPost counts a feed post attempt.
func (m *Metrics) FeedPost(media string, ok bool) {
	if media == "" {
		media = "text"
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.feedPosts.WithLabelValues(media, outcome).Inc()
}

// Middleware observes request latency. Mount it on the root router so the
// route pattern is complete once the request has been served.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
