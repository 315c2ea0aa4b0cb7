package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cyclone_catalog"

// Metrics holds the Prometheus counters, histograms, and gauges for the catalog service.
type Metrics struct {
	Refreshes       prometheus.Counter
	RefreshErrors   prometheus.Counter
	RefreshDuration prometheus.Histogram

	// Current snapshot size.
	CatalogStorms   prometheus.Gauge
	CatalogProducts prometheus.Gauge
	CatalogItems    prometheus.Gauge

	AssetQueries       *prometheus.CounterVec // labels: kind={raster,vector_point,...}
	SnapshotsPublished prometheus.Counter
	CollectionCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all catalog metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.RefreshErrors,
		m.RefreshDuration,
		m.CatalogStorms,
		m.CatalogProducts,
		m.CatalogItems,
		m.AssetQueries,
		m.SnapshotsPublished,
		m.CollectionCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Total catalog refresh attempts.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Total catalog refreshes that failed to fetch or build.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-build-swap refresh cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		CatalogStorms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_storms",
			Help:      "Storms in the current catalog snapshot.",
		}),
		CatalogProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Data products in the current catalog snapshot.",
		}),
		CatalogItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Items indexed in the current catalog snapshot.",
		}),
		AssetQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_queries_total",
			Help:      "Temporal asset lookups by dataset kind.",
		}, []string{"kind"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshot events written to Kafka.",
		}),
		CollectionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_cache_total",
			Help:      "Collection metadata cache lookups by result.",
		}, []string{"result"}),
	}
}
