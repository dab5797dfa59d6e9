// Package metrics provides Prometheus metrics for the catalog service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NormalizationRunsTotal tracks normalization passes by source and status
	NormalizationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kodi",
			Subsystem: "normalizer",
			Name:      "runs_total",
			Help:      "Total number of normalization passes by source and status",
		},
		[]string{"source", "status"},
	)

	// NormalizationDuration tracks normalization pass duration in seconds
	NormalizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kodi",
			Subsystem: "normalizer",
			Name:      "run_duration_seconds",
			Help:      "Duration of normalization passes in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	// EntitiesCreatedTotal tracks catalog rows created by the normalizer per entity kind
	EntitiesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kodi",
			Subsystem: "normalizer",
			Name:      "entities_created_total",
			Help:      "Total number of catalog entities created by entity kind",
		},
		[]string{"kind"},
	)

	// ConflictRetriesTotal tracks unique-constraint conflicts retried as reads
	ConflictRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kodi",
			Subsystem: "normalizer",
			Name:      "conflict_retries_total",
			Help:      "Total number of unique constraint conflicts retried by entity kind",
		},
		[]string{"kind"},
	)

	// EstimatesTotal tracks estimation queries by outcome
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kodi",
			Subsystem: "estimation",
			Name:      "queries_total",
			Help:      "Total number of estimation queries by status",
		},
		[]string{"status"},
	)

	// EstimateDuration tracks estimation latency in seconds
	EstimateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kodi",
			Subsystem: "estimation",
			Name:      "query_duration_seconds",
			Help:      "Duration of estimation queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// EstimateCacheTotal tracks estimate cache lookups by result
	EstimateCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kodi",
			Subsystem: "estimation",
			Name:      "cache_lookups_total",
			Help:      "Total number of estimate cache lookups by result",
		},
		[]string{"result"},
	)

	// KafkaMessagesTotal tracks consumed and published Kafka messages
	KafkaMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kodi",
			Subsystem: "kafka",
			Name:      "messages_total",
			Help:      "Total number of Kafka messages by topic, direction and status",
		},
		[]string{"topic", "direction", "status"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kodi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status_code"},
	)
)

// RecordNormalization records a finished normalization pass
func RecordNormalization(source, status string, durationSeconds float64, created map[string]int) {
	NormalizationRunsTotal.WithLabelValues(source, status).Inc()
	NormalizationDuration.WithLabelValues(source).Observe(durationSeconds)
	for kind, n := range created {
		if n > 0 {
			EntitiesCreatedTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
}

// RecordConflictRetry records a unique constraint conflict that was retried
func RecordConflictRetry(kind string) {
	ConflictRetriesTotal.WithLabelValues(kind).Inc()
}

// RecordEstimate records an estimation query
func RecordEstimate(status string, durationSeconds float64) {
	EstimatesTotal.WithLabelValues(status).Inc()
	EstimateDuration.Observe(durationSeconds)
}

// RecordCacheLookup records an estimate cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	EstimateCacheTotal.WithLabelValues(result).Inc()
}

// RecordKafkaMessage records a consumed or published message
func RecordKafkaMessage(topic, direction, status string) {
	KafkaMessagesTotal.WithLabelValues(topic, direction, status).Inc()
}

// RecordHTTPRequest records an inbound HTTP request
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestDuration.WithLabelValues(method, route, statusCode).Observe(durationSeconds)
}
