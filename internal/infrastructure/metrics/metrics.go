// Package metrics holds the prometheus collectors for the debt engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	commands    *prometheus.CounterVec
	stepSeconds prometheus.Histogram
	stepErrors  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debt",
			Name:      "scheduler_transitions_total",
			Help:      "Contract transitions applied by the lifecycle scheduler.",
		}, []string{"transition"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debt",
			Name:      "commands_total",
			Help:      "Borrower commands by outcome (ok or rejection reason).",
		}, []string{"command", "outcome"}),
		stepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "debt",
			Name:      "scheduler_step_seconds",
			Help:      "Wall time of one scheduler step over all open contracts.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		stepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debt",
			Name:      "scheduler_contract_errors_total",
			Help:      "Contracts whose evaluation failed during a step.",
		}),
	}
	m.registry.MustRegister(
		m.transitions, m.commands, m.stepSeconds, m.stepErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Nil-safe so tests and tools can pass a nil *Metrics.

func (m *Metrics) Transition(name string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(name).Inc()
}

func (m *Metrics) Command(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) StepDone(started time.Time, failed int) {
	if m == nil {
		return
	}
	m.stepSeconds.Observe(time.Since(started).Seconds())
	m.stepErrors.Add(float64(failed))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
