package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_published_total",
			Help: "Storefront events handed to Kafka, by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)

	publishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_event_publish_duration_seconds",
			Help:    "Time spent writing one storefront event to Kafka.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"topic"},
	)
)
