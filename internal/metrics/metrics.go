package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memwall_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memwall_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MemoriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memwall_memories_created_total",
			Help: "Total memories created",
		},
	)

	MemoriesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memwall_memories_deleted_total",
			Help: "Total memories deleted",
		},
		[]string{"scope"}, // "one" or "all"
	)

	StatusChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memwall_status_checks_total",
			Help: "Total connectivity probes",
		},
		[]string{"result"}, // "ok", "error", "timeout", "unconfigured"
	)

	ListCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memwall_list_cache_lookups_total",
			Help: "Redis list cache lookups",
		},
		[]string{"result"}, // "hit" or "miss"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memwall_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memwall_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	// Infrastructure metrics
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memwall_store_latency_seconds",
			Help:    "Backing store query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .5},
		},
		[]string{"op"},
	)
)
