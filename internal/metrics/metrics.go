package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Store, aggregation and ingestion Prometheus metrics.
var (
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nooze",
			Name:      "store_operations_total",
			Help:      "Total document store operations",
		},
		[]string{"op", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nooze",
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"op"},
	)

	AggregationCountsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nooze",
			Name:      "aggregation_counts_total",
			Help:      "Per-interval count queries issued by the aggregation engine",
		},
		[]string{"status"},
	)

	IngestItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nooze",
			Name:      "ingest_items_total",
			Help:      "Feed items seen by the ingester",
		},
		[]string{"source", "result"}, // "added" / "skipped" / "error"
	)
)

var registerOnce sync.Once

// Register registers all nooze collectors with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			StoreOperationsTotal,
			StoreOperationDuration,
			AggregationCountsTotal,
			IngestItemsTotal,
			httpRequestDuration,
			httpRequestsTotal,
			httpResponseBytes,
		)
	})
}

// Status maps an error to the "status" label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
