package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	FilesLoaded  prometheus.Counter
	FilesMissing prometheus.Counter
	FilesFailed  prometheus.Counter
	RowsLoaded   prometheus.Counter

	LoadDuration  prometheus.Histogram
	PipelineReady prometheus.Gauge

	// Memoized range lookups.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,snapshot}

	UnmappedCountries prometheus.Gauge

	Exports *prometheus.CounterVec // labels: sink={kafka,sqlite}, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_loaded_total",
			Help:      "Daily report files parsed successfully.",
		}),
		FilesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_missing_total",
			Help:      "Days in a requested range with no daily report file.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Daily report files that could not be parsed.",
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Observations produced by fresh pipeline builds.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a load, clean and enrich build that missed the cache.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_ready",
			Help:      "1 when the source directory is readable, 0 otherwise.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Dataset lookups by result.",
		}, []string{"result"}),
		UnmappedCountries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unmapped_countries",
			Help:      "Distinct countries without a continent in the latest build.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Dataset exports by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesLoaded,
		m.FilesMissing,
		m.FilesFailed,
		m.RowsLoaded,
		m.LoadDuration,
		m.PipelineReady,
		m.CacheLookups,
		m.UnmappedCountries,
		m.Exports,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
