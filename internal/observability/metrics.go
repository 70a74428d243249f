package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "air_quality"

// Metrics holds the Prometheus counters, histograms, and gauges for loading and querying.
type Metrics struct {
	RowsRead      prometheus.Counter
	RecordsLoaded prometheus.Counter
	RowsSkipped   *prometheus.CounterVec // labels: reason={missing_required_field,malformed_row}
	LoadRunning   prometheus.Gauge
	LoadDuration  prometheus.Histogram

	// Field-level anomalies recovered by substitution.
	FieldAnomalies *prometheus.CounterVec // labels: field, kind

	// Kafka publishing of normalized records.
	RecordsPublished prometheus.Counter
	PublishEnabled   prometheus.Gauge

	QueryRequests *prometheus.CounterVec // labels: outcome={success,error,invalid}
	QueryDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := NewMetricsForTesting()

	reg.MustRegister(
		m.RowsRead,
		m.RecordsLoaded,
		m.RowsSkipped,
		m.LoadRunning,
		m.LoadDuration,
		m.FieldAnomalies,
		m.RecordsPublished,
		m.PublishEnabled,
		m.QueryRequests,
		m.QueryDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total rows read from the input file.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Total records written to storage.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Rows dropped during ingestion by reason.",
		}, []string{"reason"}),
		LoadRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_running",
			Help:      "1 while an ingestion run is in progress.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete ingestion run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FieldAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_anomalies_total",
			Help:      "Field-level anomalies recovered during normalization.",
		}, []string{"field", "kind"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Total records published to Kafka.",
		}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_enabled",
			Help:      "1 when Kafka publishing is enabled, 0 otherwise.",
		}),
		QueryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_requests_total",
			Help:      "Lookup requests by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of lookup queries against storage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
