package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ladder monitor ingestion worker

var (
	// Battle.net API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sc2mon_api_requests_total",
			Help: "Total number of Battle.net API requests, retries included",
		},
		[]string{"status"},
	)

	APIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sc2mon_api_request_duration_seconds",
			Help:    "Duration of Battle.net API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	APIRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sc2mon_api_retries_total",
			Help: "Total number of transient API failures that were retried",
		},
		[]string{"reason"},
	)

	TokenRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sc2mon_token_refreshes_total",
			Help: "Total number of OAuth access token refreshes",
		},
	)

	// Reconciliation metrics
	ReconcileMismatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sc2mon_reconcile_mmr_mismatches_total",
			Help: "Total number of ladder entries whose rank MMR disagreed with the team record",
		},
	)

	ReconcileFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sc2mon_reconcile_failures_total",
			Help: "Total number of ladder snapshots in which a profile could not be placed",
		},
	)

	// Poll cycle metrics
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sc2mon_poll_cycles_total",
			Help: "Total number of player poll cycles",
		},
		[]string{"status"},
	)

	PollCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sc2mon_poll_cycle_duration_seconds",
			Help:    "Duration of player poll cycles in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	PlayersMonitored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sc2mon_players_monitored",
			Help: "Number of players currently monitored",
		},
	)

	MatchesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sc2mon_matches_ingested_total",
			Help: "Total number of new matches written to the database",
		},
	)

	LastSuccessfulPoll = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sc2mon_last_successful_poll_timestamp",
			Help: "Timestamp of the last fully successful poll cycle",
		},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sc2mon_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sc2mon_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sc2mon_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sc2mon_system_uptime_seconds",
			Help: "Worker uptime in seconds",
		},
	)
)

// RecordAPIRequest records one API request attempt.
func RecordAPIRequest(status string, duration float64) {
	APIRequestsTotal.WithLabelValues(status).Inc()
	APIRequestDuration.Observe(duration)
}

// RecordAPIRetry records a retried transient failure.
func RecordAPIRetry(reason string) {
	APIRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordTokenRefresh records an OAuth token refresh.
func RecordTokenRefresh() {
	TokenRefreshesTotal.Inc()
}

// RecordReconcileMismatch records a rank/team MMR disagreement.
func RecordReconcileMismatch() {
	ReconcileMismatchesTotal.Inc()
}

// RecordReconcileFailure records an unusable ladder snapshot.
func RecordReconcileFailure() {
	ReconcileFailuresTotal.Inc()
}

// RecordPollCycle records a completed poll cycle.
func RecordPollCycle(status string, duration float64) {
	PollCyclesTotal.WithLabelValues(status).Inc()
	PollCycleDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulPoll.SetToCurrentTime()
	}
}

// RecordCacheHit records a cache hit.
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordError records an error.
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
