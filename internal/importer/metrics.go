package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
)

// Metrics are the pipeline's Prometheus instruments, scraped at /metrics.
type Metrics struct {
	rowsRead *prometheus.CounterVec
	imported *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	linked   *prometheus.CounterVec
	runs     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	labels := []string{"kind"}
	return &Metrics{
		rowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oxygentracker_import_rows_read_total",
			Help: "Source rows read by import runs.",
		}, labels),
		imported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oxygentracker_import_rows_imported_total",
			Help: "Rows accepted into the entity store.",
		}, labels),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oxygentracker_import_rows_skipped_total",
			Help: "Rows skipped by validation, dedup, linkage or policy.",
		}, labels),
		linked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oxygentracker_import_rows_linked_total",
			Help: "Transaction rows applied as rental state transitions.",
		}, labels),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oxygentracker_import_runs_total",
			Help: "Import runs by outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// Register attaches the instruments to the given registerer. Kept apart from
// construction so tests can build pipelines without touching the default
// registry.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.rowsRead, m.imported, m.skipped, m.linked, m.runs)
}

func (m *Metrics) RowsRead(kind mapping.Kind, n int) {
	m.rowsRead.WithLabelValues(string(kind)).Add(float64(n))
}

func (m *Metrics) ImportFinished(kind mapping.Kind, res ImportResult) {
	m.imported.WithLabelValues(string(kind)).Add(float64(res.Imported))
	m.skipped.WithLabelValues(string(kind)).Add(float64(res.Skipped))
	m.runs.WithLabelValues(string(kind), "completed").Inc()
}

func (m *Metrics) LinkFinished(kind mapping.Kind, res LinkResult) {
	m.linked.WithLabelValues(string(kind)).Add(float64(res.Linked))
	m.skipped.WithLabelValues(string(kind)).Add(float64(res.Skipped))
	outcome := "completed"
	if res.Aborted {
		outcome = "aborted"
	}
	m.runs.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) RunFinished(kind mapping.Kind, outcome string) {
	m.runs.WithLabelValues(string(kind), outcome).Inc()
}
