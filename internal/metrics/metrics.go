// Package metrics exposes Prometheus counters for report processing and the
// HTTP endpoint that serves them.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	// Report processing
	ReportsTotal   *prometheus.CounterVec
	ReportDuration prometheus.Histogram

	// Validation
	FactsTotal       *prometheus.CounterVec
	CalculationTotal *prometheus.CounterVec

	// Graph operations
	GraphWritesTotal *prometheus.CounterVec
	GraphRowsTotal   *prometheus.CounterVec
	GraphWriteDur    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the process-wide metrics registered with the default
// registry.
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return global
}

// New creates and registers collectors on reg. gatherer backs the HTTP
// handler and may be nil when metrics are never served.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xbrlgraph_reports_total",
			Help: "Reports processed, by status",
		}, []string{"status"}),
		ReportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "xbrlgraph_report_duration_seconds",
			Help:    "Wall time to process one report",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		FactsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xbrlgraph_facts_total",
			Help: "Network fact candidates, by outcome",
		}, []string{"outcome"}),
		CalculationTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xbrlgraph_calculation_groups_total",
			Help: "Reconciled calculation groups, by result",
		}, []string{"result"}),
		GraphWritesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xbrlgraph_graph_writes_total",
			Help: "Batch write statements sent to the graph, by kind and status",
		}, []string{"kind", "status"}),
		GraphRowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xbrlgraph_graph_rows_total",
			Help: "Nodes and edges upserted, by kind",
		}, []string{"kind"}),
		GraphWriteDur: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xbrlgraph_graph_write_duration_seconds",
			Help:    "Duration of one batch write statement",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"kind"}),
		gatherer: gatherer,
	}
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// RecordReport records one processed report.
func (m *Metrics) RecordReport(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(status(ok)).Inc()
	m.ReportDuration.Observe(d.Seconds())
}

// RecordValidation records the outcome of one network validation. rejected
// is keyed by rejection reason.
func (m *Metrics) RecordValidation(valid int, rejected map[string]int) {
	if m == nil {
		return
	}
	m.FactsTotal.WithLabelValues("valid").Add(float64(valid))
	for reason, n := range rejected {
		m.FactsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordCalculation records reconciliation tallies.
func (m *Metrics) RecordCalculation(matched, mismatched, skipped int) {
	if m == nil {
		return
	}
	m.CalculationTotal.WithLabelValues("matched").Add(float64(matched))
	m.CalculationTotal.WithLabelValues("mismatched").Add(float64(mismatched))
	m.CalculationTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordGraphWrite records one batch statement of kind "node" or "edge".
func (m *Metrics) RecordGraphWrite(kind string, rows int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.GraphWritesTotal.WithLabelValues(kind, status(err == nil)).Inc()
	m.GraphWriteDur.WithLabelValues(kind).Observe(d.Seconds())
	if err == nil {
		m.GraphRowsTotal.WithLabelValues(kind).Add(float64(rows))
	}
}
