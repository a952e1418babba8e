package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Swipe pipeline
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_swipes_total",
			Help: "Swipes processed by action and outcome",
		},
		[]string{"action", "outcome"}, // outcome: no_match, match_created, match_existing, invalid, error
	)

	SwipeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripmate_swipe_duration_seconds",
			Help:    "End-to-end swipe handling latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	MatchCreationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmate_match_creation_retries_total",
			Help: "Retries of the score-and-create step after a transient failure",
		},
	)

	// Scoring
	CompatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripmate_compatibility_score",
			Help:    "Distribution of computed compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ScorerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_scorer_fallbacks_total",
			Help: "Times the primary scorer failed and the rule-based scorer was used",
		},
		[]string{"scorer"},
	)

	// Cache
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_match_cache_requests_total",
			Help: "Match cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// Store
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripmate_store_operation_duration_seconds",
			Help:    "Document store call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_store_errors_total",
			Help: "Document store failures",
		},
		[]string{"operation", "table"},
	)

	// Connections and notifications
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripmate_live_connections",
			Help: "Users with a registered push channel",
		},
	)

	Reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tripmate_reconnects_total",
			Help: "Registrations that replaced or followed a recent handle for the same user",
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripmate_notifications_total",
			Help: "Match notifications by result",
		},
		[]string{"result"}, // delivered, offline, failed
	)
)

// ObserveStoreOperation records the latency of a store call and counts failures.
func ObserveStoreOperation(operation, table string, start time.Time, err error) {
	StoreOperationDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordSwipe counts a processed swipe and its latency.
func RecordSwipe(action, outcome string, start time.Time) {
	SwipesTotal.WithLabelValues(action, outcome).Inc()
	SwipeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
