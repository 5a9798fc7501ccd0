package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route kinds label requests by what the storefront does with them.
const (
	kindPage   = "page"
	kindAction = "action"
	kindJSON   = "json"
	kindOps    = "ops"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Requests served, by route pattern and status.",
		},
		[]string{"service", "kind", "method", "path", "status"},
	)

	// Server-rendered pages wait on the marketplace API, so the buckets reach
	// past the render bound.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency, by route pattern.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 3, 5, 10},
		},
		[]string{"service", "kind", "method", "path"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Requests being served right now.",
		},
		[]string{"service"},
	)
)

// PrometheusMetrics records request count, latency and the in-flight gauge
// per chi route pattern. Unmatched paths share the "unknown" label.
func PrometheusMetrics(serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			inFlight := httpRequestsInFlight.WithLabelValues(serviceName)
			inFlight.Inc()
			defer inFlight.Dec()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			kind := routeKind(route)
			httpRequestsTotal.WithLabelValues(serviceName, kind, r.Method, route, strconv.Itoa(rec.status)).Inc()
			httpRequestDuration.WithLabelValues(serviceName, kind, r.Method, route).
				Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unknown"
}

// routeKind classifies a route pattern.
func routeKind(pattern string) string {
	switch {
	case strings.HasPrefix(pattern, "/actions/"):
		return kindAction
	case strings.HasPrefix(pattern, "/api/"):
		return kindJSON
	case strings.HasPrefix(pattern, "/health/"), pattern == "/metrics",
		strings.HasPrefix(pattern, "/debug/"), strings.HasPrefix(pattern, "/internal/"):
		return kindOps
	default:
		return kindPage
	}
}
