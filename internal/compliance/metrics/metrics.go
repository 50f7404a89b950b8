// Package metrics holds the Prometheus collectors for the compliance workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the workflow engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Operations         *prometheus.CounterVec
	OperationLatency   *prometheus.HistogramVec
	VerificationCalls  *prometheus.HistogramVec
	Decisions          *prometheus.CounterVec
	ComplianceScore    prometheus.Histogram
	LockWait           prometheus.Histogram
	ManualReviewQueued prometheus.Counter
	AuditFailures      prometheus.Counter
}

// New registers the collectors with the default Prometheus registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_compliance_operations_total",
			Help: "Workflow operations by name and outcome",
		}, []string{"operation", "outcome"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_compliance_operation_duration_seconds",
			Help:    "Workflow operation latency including verification calls",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		VerificationCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_verification_call_duration_seconds",
			Help:    "Verification capability call latency by outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"capability", "outcome"}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_compliance_decisions_total",
			Help: "Compliance decisions by outcome and decider",
		}, []string{"decision", "decided_by"}),
		ComplianceScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_compliance_score",
			Help:    "Distribution of computed compliance scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_compliance_lock_wait_seconds",
			Help:    "Time spent waiting for the per-customer lock",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
		}),
		ManualReviewQueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "kyc_compliance_manual_review_total",
			Help: "Records routed to manual review",
		}),
		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "kyc_compliance_audit_failures_total",
			Help: "Audit events that could not be emitted after a state change",
		}),
	}
}

func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveVerificationCall(capability, outcome string, d time.Duration) {
	if m != nil {
		m.VerificationCalls.WithLabelValues(capability, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncDecision(decision, decidedBy string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision, decidedBy).Inc()
	}
}

func (m *Metrics) ObserveComplianceScore(score int) {
	if m != nil {
		m.ComplianceScore.Observe(float64(score))
	}
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m != nil {
		m.LockWait.Observe(d.Seconds())
	}
}

func (m *Metrics) IncManualReview() {
	if m != nil {
		m.ManualReviewQueued.Inc()
	}
}

func (m *Metrics) IncAuditFailure() {
	if m != nil {
		m.AuditFailures.Inc()
	}
}
