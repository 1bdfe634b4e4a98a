package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_runs_total",
			Help: "Total number of pipeline runs by outcome (count)",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_run_duration_ms",
			Help:    "End-to-end pipeline run duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last successful run (seconds)",
		},
	)

	FetchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_results_total",
			Help: "Per-source fetch outcomes (count)",
		},
		[]string{"source", "status"},
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_ms",
			Help:    "Per-source fetch duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"source"},
	)

	RecordsNormalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_records_normalized_total",
			Help: "Raw records processed by the normalizer (count)",
		},
		[]string{"source", "status"},
	)

	EventsFilteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_filtered_total",
			Help: "Fetched events processed by exclusion rules (count)",
		},
		[]string{"status"},
	)

	MergeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_merge_events_total",
			Help: "Events processed by the merger (count)",
		},
		[]string{"status"},
	)

	EventsScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_events_scored_total",
			Help: "Events passed through the scorer (count)",
		},
		[]string{"status"},
	)

	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_events",
			Help: "Number of events in the last written snapshot (count)",
		},
	)

	SnapshotWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_snapshot_write_duration_ms",
			Help:    "Snapshot persist duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	FilteringActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_filtering_active_rules",
			Help: "Number of active exclusion rules (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures recorded by circuit breaker (count)",
		},
		[]string{"name"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"operation"},
	)
)

func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		RunsTotal,
		RunDuration,
		LastRunTimestamp,
		FetchResultsTotal,
		FetchDuration,
		RecordsNormalizedTotal,
		EventsFilteredTotal,
		MergeEventsTotal,
		EventsScoredTotal,
		CatalogSize,
		SnapshotWriteDuration,
		FilteringActiveRules,
		RetryAttemptsTotal,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerFailures,
	)
}

func ObserveRunDuration(d time.Duration) {
	RunDuration.Observe(float64(d.Milliseconds()))
}

func ObserveFetchDuration(source string, d time.Duration) {
	FetchDuration.WithLabelValues(source).Observe(float64(d.Milliseconds()))
}

func ObserveSnapshotWriteDuration(d time.Duration) {
	SnapshotWriteDuration.Observe(float64(d.Milliseconds()))
}

func SetFilteringActiveRules(count int) {
	FilteringActiveRules.Set(float64(count))
}

func SetCatalogSize(count int) {
	CatalogSize.Set(float64(count))
}
