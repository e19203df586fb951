package dataset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hitek",
			Subsystem: "dataset",
			Name:      "lookup_duration_seconds",
			Help:      "Dataset lookup latency including retries.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind", "outcome"},
	)

	lookupRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hitek",
			Subsystem: "dataset",
			Name:      "busy_retries_total",
			Help:      "Lookups retried after lock contention.",
		},
		[]string{"kind"},
	)
)
