package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "tilestats"
)

var (
	StatQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "stat", "query_duration_seconds"),
		Help:    "Duration of single stat queries in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"operation", "outcome"})
	StatResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "stat", "results_total"),
		Help: "Resolved stats by error code, empty code meaning success",
	}, []string{"code"})
	TileResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "tile", "resolutions_total"),
		Help: "Tile stat resolutions by mode and cache outcome",
	}, []string{"mode", "cache"})
	TileResolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "tile", "resolve_duration_seconds"),
		Help:    "Duration of resolving all stats of a tile in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"mode"})
	WorkerWarmDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "worker", "warm_duration_seconds"),
		Help: "Duration of last cache warm batch in seconds",
	}, []string{"worker"})
	WorkerWarmedTiles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "worker", "warmed_tiles"),
		Help: "Number of tile scopes warmed in the last batch",
	}, []string{"worker"})
)
