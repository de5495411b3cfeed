package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the pipeline.
type Metrics struct {
	reportsProcessed   *prometheus.CounterVec
	processingDuration prometheus.Histogram
	factRows           *prometheus.CounterVec
	rankingQueries     *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for the pipeline.
func NewMetrics() *Metrics {
	reportsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ispmetrics_reports_processed_total",
		Help: "Counts report processing passes by terminal status.",
	}, []string{"status"})

	processingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ispmetrics_report_processing_duration_seconds",
		Help:    "Wall time of one report processing pass.",
		Buckets: prometheus.DefBuckets,
	})

	factRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ispmetrics_fact_rows_total",
		Help: "Counts fact rows written per fact table.",
	}, []string{"table"})

	rankingQueries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ispmetrics_ranking_queries_total",
		Help: "Counts ranking and comparison queries by kind.",
	}, []string{"kind"})

	prometheus.MustRegister(reportsProcessed, processingDuration, factRows, rankingQueries)

	return &Metrics{
		reportsProcessed:   reportsProcessed,
		processingDuration: processingDuration,
		factRows:           factRows,
		rankingQueries:     rankingQueries,
	}
}

func (m *Metrics) IncReportProcessed(status string) {
	if m == nil {
		return
	}
	m.reportsProcessed.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveProcessing(d time.Duration) {
	if m == nil {
		return
	}
	m.processingDuration.Observe(d.Seconds())
}

func (m *Metrics) IncFactRow(table string) {
	if m == nil {
		return
	}
	m.factRows.WithLabelValues(table).Inc()
}

func (m *Metrics) IncRankingQuery(kind string) {
	if m == nil {
		return
	}
	m.rankingQueries.WithLabelValues(kind).Inc()
}
