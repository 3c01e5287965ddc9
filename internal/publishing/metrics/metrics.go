package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedLoadsTotal tracks feed loads per source and outcome
	FeedLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postfeed_feed_loads_total",
			Help: "Total number of feed loads",
		},
		[]string{"source", "outcome"},
	)

	// FeedPosts tracks the number of posts in the last rendered feed
	FeedPosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postfeed_feed_posts",
			Help: "Number of posts in the last rendered feed",
		},
	)

	// MediaBindingsTotal tracks slot bindings by kind (initial, retry, fallback)
	MediaBindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postfeed_media_bindings_total",
			Help: "Total number of media slot bindings",
		},
		[]string{"kind"},
	)

	// MediaResolutionsTotal tracks settled slots by final state
	MediaResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postfeed_media_resolutions_total",
			Help: "Total number of resolved media slots",
		},
		[]string{"state"},
	)

	// MediaCacheTotal tracks resolution cache lookups
	MediaCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postfeed_media_cache_total",
			Help: "Total number of media cache lookups",
		},
		[]string{"result"},
	)

	// ProbeLatency tracks media probe latency
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postfeed_probe_latency_seconds",
			Help:    "Media probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// RenderDuration tracks full page build time
	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "postfeed_render_duration_seconds",
			Help:    "Time to load, resolve and render the feed page",
			Buckets: prometheus.DefBuckets,
		},
	)

	// DBConnectionPoolUsage tracks DB connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postfeed_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
