// Package metrics instruments the compliance engine with Prometheus
// collectors. The engine exposes no HTTP listener itself; callers that
// want scraping mount Registry on their own mux.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	// Registry is the dedicated Prometheus registry the collectors are
	// registered on.
	Registry *prometheus.Registry

	// CheckerRuns counts checker executions by rule and verdict.
	CheckerRuns *prometheus.CounterVec

	// CheckerFailures counts checkers that crashed, by rule.
	CheckerFailures *prometheus.CounterVec

	// CheckDuration observes full single-file check latency.
	CheckDuration prometheus.Histogram

	// AuditDuration observes whole-audit latency.
	AuditDuration prometheus.Histogram

	// FilesSkipped counts files an audit could not read.
	FilesSkipped prometheus.Counter
}

// New creates the engine's metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.CheckerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkup",
		Name:      "checker_runs_total",
		Help:      "Checker executions by rule and verdict.",
	}, []string{"rule", "verdict"})

	m.CheckerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkup",
		Name:      "checker_failures_total",
		Help:      "Checkers that crashed or errored internally, by rule.",
	}, []string{"rule"})

	m.CheckDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "checkup",
		Name:      "check_duration_seconds",
		Help:      "Latency of a full single-file check.",
		Buckets:   prometheus.DefBuckets,
	})

	m.AuditDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "checkup",
		Name:      "audit_duration_seconds",
		Help:      "Latency of a whole audit run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	m.FilesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "checkup",
		Name:      "files_skipped_total",
		Help:      "Files an audit run could not evaluate.",
	})

	m.Registry.MustRegister(
		m.CheckerRuns, m.CheckerFailures, m.CheckDuration, m.AuditDuration, m.FilesSkipped,
	)
	return m
}

// ObserveOutcome records one checker outcome.
func (m *Metrics) ObserveOutcome(rule string, passed bool, errored bool) {
	if m == nil {
		return
	}
	verdict := "pass"
	if !passed {
		verdict = "fail"
	}
	m.CheckerRuns.WithLabelValues(rule, verdict).Inc()
	if errored {
		m.CheckerFailures.WithLabelValues(rule).Inc()
	}
}
