// Package metrics holds the Prometheus collectors of the consistency engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kbguard"

type Metrics struct {
	LLMCalls         *prometheus.CounterVec
	RelationsWritten *prometheus.CounterVec
	Adjudications    *prometheus.CounterVec
	AbrogationAlerts *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM provider attempts by usage context, provider and outcome.",
		}, []string{"context", "provider", "outcome"}),
		RelationsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relations_written_total",
			Help:      "Document relations written by type.",
		}, []string{"type"}),
		Adjudications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjudications_total",
			Help:      "Contradiction adjudications by outcome.",
		}, []string{"outcome"}),
		AbrogationAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "abrogation_alerts_total",
			Help:      "Abrogation alerts generated by severity.",
		}, []string{"severity"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of one pipeline run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"pipeline"}),
	}

	if reg != nil {
		reg.MustRegister(m.LLMCalls, m.RelationsWritten, m.Adjudications, m.AbrogationAlerts, m.PipelineDuration)
	}
	return m
}

func (m *Metrics) LLMCall(usage, provider, outcome string) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(usage, provider, outcome).Inc()
}

func (m *Metrics) RelationWritten(relationType string) {
	if m == nil {
		return
	}
	m.RelationsWritten.WithLabelValues(relationType).Inc()
}

func (m *Metrics) Adjudication(outcome string) {
	if m == nil {
		return
	}
	m.Adjudications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AbrogationAlert(severity string) {
	if m == nil {
		return
	}
	m.AbrogationAlerts.WithLabelValues(severity).Inc()
}

// ObservePipeline records the time elapsed since start.
func (m *Metrics) ObservePipeline(pipeline string, start time.Time) {
	if m == nil {
		return
	}
	m.PipelineDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
}
