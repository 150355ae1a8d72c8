// Package metrics declares the server's Prometheus collectors on the
// default registry; the control surface serves them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts provider-read cache hits by key prefix.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harmonia_cache_hits_total",
		Help: "Cache hits, by key prefix.",
	}, []string{"prefix"})

	// CacheMisses counts provider-read cache misses by key prefix.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harmonia_cache_misses_total",
		Help: "Cache misses, by key prefix.",
	}, []string{"prefix"})

	// SyncJobDuration observes wall-clock seconds per finished sync job.
	SyncJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harmonia_sync_job_duration_seconds",
		Help:    "Duration of provider library sync jobs.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"provider_domain", "entity"})

	// QueueDepth tracks the item count of each player queue.
	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "harmonia_queue_depth",
		Help: "Items currently loaded in each player queue.",
	}, []string{"player_id"})

	// PlayersRegistered tracks the current roster size.
	PlayersRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "harmonia_players_registered",
		Help: "Players currently registered with the player manager.",
	})

	// StreamsStarted counts resolved stream details handed to players.
	StreamsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harmonia_streams_started_total",
		Help: "Stream details resolved, by winning provider domain.",
	}, []string{"provider_domain"})
)
