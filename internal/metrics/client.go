package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Client-side discovery metrics.
var (
	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grants",
			Name:      "listing_cache_total",
			Help:      "Listing cache hits and misses",
		},
		[]string{"key", "result"}, // "hit" / "miss"
	)

	CacheInvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grants",
			Name:      "listing_cache_invalidations_total",
			Help:      "Listing cache invalidations by mutation and key",
		},
		[]string{"mutation", "key"},
	)

	SearchResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grants",
			Name:      "search_responses_total",
			Help:      "Advanced search responses by outcome",
		},
		[]string{"outcome"}, // "applied" / "stale" / "error"
	)

	SearchRequestsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grants",
			Name:      "search_requests_issued_total",
			Help:      "Advanced search requests issued by the discovery controller",
		},
	)
)

var registerClientOnce sync.Once

// RegisterClientMetrics registers the discovery metrics on the default registry.
// Safe to call more than once.
func RegisterClientMetrics() {
	registerClientOnce.Do(func() {
		prometheus.MustRegister(CacheTotal)
		prometheus.MustRegister(CacheInvalidationsTotal)
		prometheus.MustRegister(SearchResponsesTotal)
		prometheus.MustRegister(SearchRequestsIssued)
	})
}
