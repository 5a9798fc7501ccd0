package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	suggestionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_suggestion_requests_total",
			Help: "Suggestion lookups by the source that produced the applied result",
		},
		[]string{"source"},
	)

	enrichmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_enrichment_failures_total",
			Help: "Per-product review fetches that failed and degraded to an empty summary",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)
)
