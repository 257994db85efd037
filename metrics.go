package capsql

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mickamy/capsql/internal/query"
)

var ops = []string{query.OpSelect, query.OpInsert, query.OpUpdate, query.OpDelete, query.OpOther}

// stats are live counters read by the metrics collector at scrape time.
type stats struct {
	captured [5]atomic.Int64 // indexed like ops
	sessions atomic.Int64
}

func (s *stats) record(op string) {
	for i, o := range ops {
		if o == op {
			s.captured[i].Add(1)
			return
		}
	}
	s.captured[len(ops)-1].Add(1)
}

// metricsProvider exposes engine counters for Prometheus scraping.
type metricsProvider struct {
	e *Engine

	captured *prometheus.Desc
	sessions *prometheus.Desc
	depth    *prometheus.Desc
}

// Collector returns a prometheus.Collector reporting captured statements by
// operation, sessions entered and currently open sessions. constLabels tell
// engines apart when several share a registry.
func (e *Engine) Collector(constLabels prometheus.Labels) prometheus.Collector {
	return &metricsProvider{
		e: e,
		captured: prometheus.NewDesc(
			"capsql_statements_captured_total",
			"Number of statements recorded into capture sessions",
			[]string{"op"}, constLabels,
		),
		sessions: prometheus.NewDesc(
			"capsql_sessions_entered_total",
			"Number of capture sessions entered",
			nil, constLabels,
		),
		depth: prometheus.NewDesc(
			"capsql_open_sessions",
			"Number of capture sessions currently open",
			nil, constLabels,
		),
	}
}

// Describe implements prometheus.Collector.
func (m *metricsProvider) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.captured
	ch <- m.sessions
	ch <- m.depth
}

// Collect implements prometheus.Collector.
func (m *metricsProvider) Collect(ch chan<- prometheus.Metric) {
	for i, op := range ops {
		ch <- prometheus.MustNewConstMetric(m.captured, prometheus.CounterValue,
			float64(m.e.stats.captured[i].Load()), op)
	}
	ch <- prometheus.MustNewConstMetric(m.sessions, prometheus.CounterValue,
		float64(m.e.stats.sessions.Load()))
	ch <- prometheus.MustNewConstMetric(m.depth, prometheus.GaugeValue,
		float64(m.e.Depth()))
}
