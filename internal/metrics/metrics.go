package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics – observability for the approval engine. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions   *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	Executions    *prometheus.CounterVec
	SweepActions  *prometheus.CounterVec
	SweepDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_submissions_total",
			Help: "Approval requests submitted by action type",
		}, []string{"action_type"}),

		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Individual approver decisions by value and whether they resolved the request",
		}, []string{"decision", "effect"}), // effect: resolving, pending, late

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_transitions_total",
			Help: "Request status transitions by target status",
		}, []string{"status"}),

		Executions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_executions_total",
			Help: "Deferred action executions by method and outcome",
		}, []string{"method", "outcome"}),

		SweepActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "approval_sweep_actions_total",
			Help: "Reminders, escalations and expiries fired by the scheduler",
		}, []string{"kind"}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "approval_sweep_duration_seconds",
			Help:    "Duration of a full escalation/reminder sweep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncSubmission(actionType string) {
	if m != nil {
		m.Submissions.WithLabelValues(actionType).Inc()
	}
}

func (m *Metrics) IncDecision(decision, effect string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision, effect).Inc()
	}
}

func (m *Metrics) IncTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncExecution(method, outcome string) {
	if m != nil {
		m.Executions.WithLabelValues(method, outcome).Inc()
	}
}

func (m *Metrics) IncSweepAction(kind string) {
	if m != nil {
		m.SweepActions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m != nil {
		m.SweepDuration.Observe(d.Seconds())
	}
}
