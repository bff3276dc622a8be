// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Loader metrics
	SymbolsResolved prometheus.Counter
	BarsFetched     prometheus.Counter
	BarsWritten     prometheus.Counter
	SymbolErrors    *prometheus.CounterVec
	LoadRunsTotal   *prometheus.CounterVec
	LoadDuration    prometheus.Histogram

	// Snapshot metrics
	SnapshotRowsInserted prometheus.Counter
	SnapshotRunsTotal    *prometheus.CounterVec
	SnapshotDuration     prometheus.Histogram

	// Database metrics
	DBQueryErrors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "equity_movers_lab"
	}

	return &Metrics{
		// Loader metrics
		SymbolsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "symbols_resolved_total",
			Help:      "Total number of universe symbols resolved for loading",
		}),
		BarsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "bars_fetched_total",
			Help:      "Total number of raw daily bars fetched from the provider",
		}),
		BarsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "bars_written_total",
			Help:      "Total number of normalized bars upserted",
		}),
		SymbolErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "symbol_errors_total",
			Help:      "Total number of per-symbol load errors by stage",
		}, []string{"stage"}),
		LoadRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "runs_total",
			Help:      "Total number of load runs by status",
		}, []string{"status"}),
		LoadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "duration_seconds",
			Help:      "Load run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Snapshot metrics
		SnapshotRowsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "rows_inserted_total",
			Help:      "Total number of mover snapshot rows inserted",
		}),
		SnapshotRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "runs_total",
			Help:      "Total number of snapshot runs by status",
		}, []string{"status"}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Snapshot run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBarsFetched adds to the bars fetched counter.
func RecordBarsFetched(n int) {
	DefaultMetrics.BarsFetched.Add(float64(n))
}

// RecordBarsWritten adds to the bars written counter.
func RecordBarsWritten(n int) {
	DefaultMetrics.BarsWritten.Add(float64(n))
}

// RecordSymbolsResolved adds to the symbols resolved counter.
func RecordSymbolsResolved(n int) {
	DefaultMetrics.SymbolsResolved.Add(float64(n))
}

// RecordSymbolError increments the per-symbol error counter for a stage.
func RecordSymbolError(stage string) {
	DefaultMetrics.SymbolErrors.WithLabelValues(stage).Inc()
}

// RecordLoadRun records a load run.
func RecordLoadRun(status string, durationSeconds float64) {
	DefaultMetrics.LoadRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.LoadDuration.Observe(durationSeconds)
}

// RecordSnapshotRun records a snapshot run.
func RecordSnapshotRun(status string, rows int, durationSeconds float64) {
	DefaultMetrics.SnapshotRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.SnapshotRowsInserted.Add(float64(rows))
	DefaultMetrics.SnapshotDuration.Observe(durationSeconds)
}

// RecordDBQueryError records a database query error.
func RecordDBQueryError(database, operation string) {
	DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
}
