package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Bridge HTTP metrics. Labels use the chi route pattern, so
// /api/discovery/tags/soil and /api/discovery/tags/stem share a series.
var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grants",
			Subsystem: "bridge",
			Name:      "http_request_duration_seconds",
			Help:      "Bridge HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grants",
			Subsystem: "bridge",
			Name:      "http_requests_total",
			Help:      "Total number of bridge HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "grants",
			Subsystem: "bridge",
			Name:      "http_requests_in_flight",
			Help:      "Bridge HTTP requests currently being served",
		},
	)
)

// unmatchedRoute labels requests no route matched, so probes for random
// paths cannot create new series.
const unmatchedRoute = "unmatched"

var registerBridgeOnce sync.Once

// RegisterBridgeMetrics registers the bridge HTTP metrics on the default registry.
// Middleware calls it; calling it again is a no-op.
func RegisterBridgeMetrics() {
	registerBridgeOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(httpInFlight)
	})
}

// Middleware records bridge request duration, count and concurrency.
// It must run inside a chi router.
func Middleware() func(next http.Handler) http.Handler {
	RegisterBridgeMetrics()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeLabel(r)
			code := strconv.Itoa(status)

			httpRequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		})
	}
}

// routeLabel returns the matched chi pattern, or unmatchedRoute.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" && pattern != "/*" {
		return pattern
	}
	return unmatchedRoute
}
