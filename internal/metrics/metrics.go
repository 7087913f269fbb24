package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Session lifecycle metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honquedoro_sessions_started_total",
			Help: "Total sessions started",
		},
		[]string{"type"},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honquedoro_sessions_completed_total",
			Help: "Total sessions completed",
		},
		[]string{"type"},
	)

	SessionsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honquedoro_sessions_cancelled_total",
			Help: "Total sessions cancelled",
		},
		[]string{"type"},
	)

	SessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "honquedoro_sessions_swept_total",
			Help: "Expired active sessions completed by the sweeper",
		},
	)

	AchievementsEarned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "honquedoro_achievements_earned_total",
			Help: "Total achievements earned",
		},
	)

	// Statistics cache metrics
	StatsCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "honquedoro_stats_cache_hits_total",
			Help: "Statistics cache hits",
		},
	)

	StatsCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "honquedoro_stats_cache_misses_total",
			Help: "Statistics cache misses",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "honquedoro_http_requests_total",
			Help: "Total HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "honquedoro_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsCompleted,
		SessionsCancelled,
		SessionsSwept,
		AchievementsEarned,
		StatsCacheHits,
		StatsCacheMisses,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}
