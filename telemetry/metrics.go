// Package telemetry holds the Prometheus metrics and OpenTelemetry helpers
// shared by the planner, the runner and the HTTP server.
package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rlch/graphplan"
)

// Plan outcomes, used as the "outcome" label.
const (
	OutcomePlanned       = "planned"
	OutcomeLowConfidence = "low_confidence"
	OutcomeNoEntity      = "no_entity"
	OutcomeError         = "error"
)

// Step statuses, used as the "status" label.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

const namespace = "graphplan"

// Metrics is a private Prometheus registry with the planner and executor
// collectors. A nil *Metrics records nothing, so components can hold one
// unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	plans        *prometheus.CounterVec
	scores       prometheus.Histogram
	steps        *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	records      prometheus.Counter
	executions   *prometheus.CounterVec
}

// NewMetrics creates a registry with the graphplan collectors plus the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plans_total",
			Help:      "Plans requested, by outcome.",
		}, []string{"outcome"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "top_score",
			Help:      "Cosine score of the best ranked intent.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.55, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "steps_total",
			Help:      "Plan steps processed, by status.",
		}, []string{"status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "step_duration_seconds",
			Help:      "Duration of one plan step against the graph store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "records_total",
			Help:      "Result records returned to callers.",
		}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "executions_total",
			Help:      "Plans executed, by status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.plans,
		m.scores,
		m.steps,
		m.stepDuration,
		m.records,
		m.executions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordPlan counts one planning attempt. score is the best classification
// score, or a negative number when classification never ran.
func (m *Metrics) RecordPlan(outcome string, score float64) {
	if m == nil {
		return
	}

	m.plans.WithLabelValues(outcome).Inc()

	if score >= 0 {
		m.scores.Observe(score)
	}
}

// RecordStep counts one plan step and its duration.
func (m *Metrics) RecordStep(status string, d time.Duration) {
	if m == nil {
		return
	}

	m.steps.WithLabelValues(status).Inc()

	if status != StatusSkipped {
		m.stepDuration.WithLabelValues(status).Observe(d.Seconds())
	}
}

// RecordExecution counts one executed plan and the records it produced.
func (m *Metrics) RecordExecution(err error, records int) {
	if m == nil {
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	m.executions.WithLabelValues(status).Inc()
	m.records.Add(float64(records))
}

// Outcome maps a GeneratePlan error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomePlanned
	case errors.Is(err, graphplan.ErrLowConfidence):
		return OutcomeLowConfidence
	case errors.Is(err, graphplan.ErrNoEntity):
		return OutcomeNoEntity
	default:
		return OutcomeError
	}
}
