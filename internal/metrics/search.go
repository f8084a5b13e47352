package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and answer synthesis Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search requests by mode",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds, including synthesis",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of ranked results returned",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	SynthesisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_request_duration_seconds",
			Help:      "Answer synthesis request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"provider", "model"},
	)

	SynthesisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_errors_total",
			Help:      "Total answer synthesis errors",
		},
		[]string{"provider", "model"},
	)

	searchOnce sync.Once
)

// RegisterSearchMetrics registers the search and synthesis collectors. Safe to call repeatedly.
func RegisterSearchMetrics() {
	register(&searchOnce,
		SearchRequestsTotal,
		SearchDuration,
		SearchResults,
		SynthesisRequestDuration,
		SynthesisErrorsTotal,
	)
}
