package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ComputationsTotal   prometheus.Counter
	ComputationErrors   *prometheus.CounterVec // reason label: missing_table|feed_fetch|invalid_input
	ComputationDuration prometheus.Histogram
	DatesProcessed      prometheus.Counter

	ActiveJobs prometheus.Gauge
	JobsTotal  *prometheus.CounterVec // status label: done|failed

	FeedDownloadDuration prometheus.Histogram
	FeedParseDuration    prometheus.Histogram
	ParseCacheHits       prometheus.Counter
	ParseCacheMisses     prometheus.Counter

	ResultCacheHits   prometheus.Counter
	ResultCacheMisses prometheus.Counter

	WSConnections    prometheus.Gauge
	RateLimitBlocked prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ComputationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_computations_total",
			Help: "Total service-hours computations started.",
		}),
		ComputationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transithours_computation_errors_total",
			Help: "Computation failures by reason.",
		}, []string{"reason"}),
		ComputationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transithours_computation_duration_seconds",
			Help:    "Duration of full date-range computations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		DatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_dates_processed_total",
			Help: "Total calendar dates resolved and aggregated.",
		}),
		ActiveJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transithours_active_jobs",
			Help: "Number of currently running computation jobs.",
		}),
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transithours_jobs_total",
			Help: "Finished computation jobs by status.",
		}, []string{"status"}),
		FeedDownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transithours_feed_download_duration_seconds",
			Help:    "Duration of GTFS archive downloads.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		FeedParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transithours_feed_parse_duration_seconds",
			Help:    "Duration of GTFS archive parsing.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ParseCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_parse_cache_hits_total",
			Help: "Parsed-feed disk cache hits.",
		}),
		ParseCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_parse_cache_misses_total",
			Help: "Parsed-feed disk cache misses.",
		}),
		ResultCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_result_cache_hits_total",
			Help: "Redis result cache hits.",
		}),
		ResultCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_result_cache_misses_total",
			Help: "Redis result cache misses.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transithours_ws_connections",
			Help: "Open websocket progress connections.",
		}),
		RateLimitBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transithours_rate_limit_blocked_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		c.ComputationsTotal, c.ComputationErrors, c.ComputationDuration, c.DatesProcessed,
		c.ActiveJobs, c.JobsTotal,
		c.FeedDownloadDuration, c.FeedParseDuration, c.ParseCacheHits, c.ParseCacheMisses,
		c.ResultCacheHits, c.ResultCacheMisses,
		c.WSConnections, c.RateLimitBlocked,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
