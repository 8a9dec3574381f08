package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the report service collectors.
type Metrics struct {
	built    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		built: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_built_total",
			Help: "Reports requested, by report, format and outcome.",
		}, []string{"report", "format", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_build_duration_seconds",
			Help:    "Time to query, build and render a report.",
			Buckets: prometheus.DefBuckets,
		}, []string{"report"}),
		rows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_rows",
			Help:    "Rows per built report, summary rows included.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"report"}),
	}
}

func (m *Metrics) observe(report, format, outcome string, seconds float64, rows int) {
	m.built.WithLabelValues(report, format, outcome).Inc()
	if outcome != "ok" {
		return
	}
	m.duration.WithLabelValues(report).Observe(seconds)
	m.rows.WithLabelValues(report).Observe(float64(rows))
}
