package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hitek",
		Subsystem: "query",
		Name:      "cache_hits_total",
		Help:      "Identifier lookups served from cache.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hitek",
		Subsystem: "query",
		Name:      "cache_misses_total",
		Help:      "Identifier lookups that reached the dataset.",
	})
	deepHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hitek",
		Subsystem: "query",
		Name:      "deep_search_hops",
		Help:      "Alternate-phone hops followed per identifier lookup.",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})
)
