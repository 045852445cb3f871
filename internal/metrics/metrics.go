// Package metrics registers the Prometheus counters the analyzer exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "analyzer_evaluations_total", Help: "Symbol evaluations completed"},
		[]string{"symbol", "direction"},
	)
	SignalsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "analyzer_signals_emitted_total", Help: "Signals that passed the emission gate"},
		[]string{"symbol", "direction"},
	)
	SignalsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "analyzer_signals_suppressed_total", Help: "Signals suppressed by the gate"},
		[]string{"symbol", "reason"},
	)
	NotifyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "analyzer_notify_failures_total", Help: "Notification deliveries that failed"},
		[]string{"provider"},
	)
	FetchRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "analyzer_fetch_retries_total", Help: "Market data request retries"},
		[]string{"path"},
	)
)

func init() {
	prometheus.MustRegister(
		EvaluationsTotal,
		SignalsEmittedTotal,
		SignalsSuppressedTotal,
		NotifyFailuresTotal,
		FetchRetriesTotal,
	)
}
