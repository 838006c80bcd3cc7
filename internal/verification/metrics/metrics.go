package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	// Field extraction outcomes by field and status
	FieldOutcome *prometheus.CounterVec

	// Liveness verdicts by result
	LivenessVerdict *prometheus.CounterVec

	// Comparison outcomes by outcome and reason
	MatchOutcome *prometheus.CounterVec

	// Per-operation latency
	AttemptLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		FieldOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_extraction_field_total",
			Help: "Document field extraction outcomes by field and status",
		}, []string{"field", "status"}),

		LivenessVerdict: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_liveness_verdicts_total",
			Help: "Liveness verdicts by result",
		}, []string{"real"}),

		MatchOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_match_outcomes_total",
			Help: "Face comparison outcomes by outcome and reason",
		}, []string{"outcome", "reason"}),

		AttemptLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attest_attempt_duration_seconds",
			Help:    "Duration of full verification attempts by operation",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}
}

// IncrementFieldOutcome records one extracted field's status.
func (m *Metrics) IncrementFieldOutcome(field, status string) {
	if m != nil {
		m.FieldOutcome.WithLabelValues(field, status).Inc()
	}
}

// IncrementLiveness records a liveness verdict.
func (m *Metrics) IncrementLiveness(real bool) {
	if m != nil {
		label := "false"
		if real {
			label = "true"
		}
		m.LivenessVerdict.WithLabelValues(label).Inc()
	}
}

// IncrementMatchOutcome records a comparison verdict.
func (m *Metrics) IncrementMatchOutcome(outcome, reason string) {
	if m != nil {
		m.MatchOutcome.WithLabelValues(outcome, reason).Inc()
	}
}

// ObserveAttemptLatency records the duration of one pipeline attempt.
func (m *Metrics) ObserveAttemptLatency(operation string, d time.Duration) {
	if m != nil {
		m.AttemptLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
