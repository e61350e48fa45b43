package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dining"

// Metrics holds the Prometheus counters, histograms, and gauges for the catalog service.
type Metrics struct {
	// Catalog refresh metrics.
	Refreshes       *prometheus.CounterVec // labels: source={memory,cache,network}, outcome={success,superseded,server_error,transport_error}
	RefreshDuration prometheus.Histogram
	LocationsLoaded prometheus.Gauge

	// Response cache metrics.
	ResponseCache    *prometheus.CounterVec // labels: result={hit,miss,stale}
	CacheWriteErrors prometheus.Counter

	// Feed transport metrics.
	FeedRequestDuration prometheus.Histogram
	DecodeDefects       prometheus.Counter

	// Snapshot publishing metrics.
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
	SchedulerRunning   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Refreshes,
		m.RefreshDuration,
		m.LocationsLoaded,
		m.ResponseCache,
		m.CacheWriteErrors,
		m.FeedRequestDuration,
		m.DecodeDefects,
		m.SnapshotsPublished,
		m.PublishErrors,
		m.SchedulerRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Catalog refresh attempts by data source and outcome.",
		}, []string{"source", "outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Duration of a catalog refresh including fetch and normalization.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		LocationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_locations",
			Help:      "Number of locations held by the current catalog.",
		}),
		ResponseCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_write_errors_total",
			Help:      "Response cache writes that failed.",
		}),
		FeedRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Dining feed HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DecodeDefects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_defects_total",
			Help:      "Feed records that needed at least one field set defaulted.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Location snapshots written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publish_errors_total",
			Help:      "Snapshot batches that failed to publish.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when the refresh scheduler is active, 0 when shut down.",
		}),
	}
}
