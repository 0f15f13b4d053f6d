package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SocialActions counts graph mutations by action and result.
	SocialActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilegraph_social_actions_total",
		Help: "Total social actions (follow, like, comment, tag) by result",
	}, []string{"action", "result"})

	// PolicyDecisions counts authorization outcomes by resource and outcome.
	PolicyDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilegraph_policy_decisions_total",
		Help: "Total authorization decisions by resource and outcome",
	}, []string{"resource", "outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilegraph_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache hits and misses by key kind.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "profilegraph_cache_lookups_total",
		Help: "Cache lookups by kind and result",
	}, []string{"kind", "result"})

	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "profilegraph_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ImageUploadBytes records accepted image sizes by category.
	ImageUploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "profilegraph_image_upload_bytes",
		Help:    "Size of stored images in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
	}, []string{"category"})
)

// RecordAction increments SocialActions with "ok" or "error".
func RecordAction(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SocialActions.WithLabelValues(action, result).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
