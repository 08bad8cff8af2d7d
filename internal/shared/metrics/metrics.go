// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forward sources.
const (
	SourceWatch  = "watch"
	SourceManual = "manual"
)

var (
	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_polls_total",
		Help: "Number of watch loop iterations that queried the source account.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_rate_limited_total",
		Help: "Number of source API calls rejected with a rate limit.",
	})

	ForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_posts_forwarded_total",
		Help: "Number of posts delivered to the destination channel.",
	}, []string{"source"})

	ForwardFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_forward_failures_total",
		Help: "Number of posts that could not be delivered, by reason.",
	}, []string{"source", "reason"})

	MediaFetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_media_fetch_failures_total",
		Help: "Number of media downloads that failed.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_submission_queue_depth",
		Help: "Number of manual submissions waiting to be processed.",
	})

	PostCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_post_cache_hits_total",
		Help: "Number of single-post lookups served from the cache.",
	})

	PostCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_post_cache_misses_total",
		Help: "Number of single-post lookups that went to the source API.",
	})

	WatchEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_watch_enabled",
		Help: "1 while watch mode is enabled.",
	})
)
