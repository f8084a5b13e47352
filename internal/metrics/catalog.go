package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog ingestion metrics.
var (
	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Movie records processed by ingestion",
		},
		[]string{"status"}, // "loaded", "skipped", "failed"
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_batch_duration_seconds",
			Help:      "Time to embed and store one ingestion batch",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	catalogOnce sync.Once
)

// RegisterCatalogMetrics registers the ingestion collectors. Safe to call repeatedly.
func RegisterCatalogMetrics() {
	register(&catalogOnce,
		IngestRecordsTotal,
		IngestBatchDuration,
	)
}
