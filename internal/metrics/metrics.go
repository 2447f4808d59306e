package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Workflow holds the Prometheus collectors for the task workflow.
// A nil *Workflow is valid and records nothing.
type Workflow struct {
	operations       *prometheus.CounterVec
	versionConflicts *prometheus.CounterVec
	retries          *prometheus.CounterVec
	monitorFlags     *prometheus.CounterVec
	subscribers      prometheus.Gauge
	droppedEvents    prometheus.Counter
}

// NewWorkflow creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewWorkflow(reg prometheus.Registerer) *Workflow {
	m := &Workflow{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_workflow_operations_total",
				Help: "Workflow operations by outcome",
			},
			[]string{"op", "result"},
		),
		versionConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_workflow_version_conflicts_total",
				Help: "Commits refused because the task changed underneath",
			},
			[]string{"op"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_workflow_retries_total",
				Help: "Caller retries after a version conflict",
			},
			[]string{"op"},
		),
		monitorFlags: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhub_monitor_flags_total",
				Help: "Monitor evaluations that raised a flag",
			},
			[]string{"flag"},
		),
		subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhub_event_subscribers",
				Help: "Current number of task event subscribers",
			},
		),
		droppedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskhub_events_dropped_total",
				Help: "Events not delivered to a slow subscriber",
			},
		),
	}

	reg.MustRegister(
		m.operations,
		m.versionConflicts,
		m.retries,
		m.monitorFlags,
		m.subscribers,
		m.droppedEvents,
	)
	return m
}

func (m *Workflow) ObserveOperation(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Workflow) VersionConflict(op string) {
	if m == nil {
		return
	}
	m.versionConflicts.WithLabelValues(op).Inc()
}

func (m *Workflow) Retry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *Workflow) MonitorFlags(overdue, atRisk bool) {
	if m == nil {
		return
	}
	if overdue {
		m.monitorFlags.WithLabelValues("overdue").Inc()
	}
	if atRisk {
		m.monitorFlags.WithLabelValues("at_risk").Inc()
	}
}

func (m *Workflow) SubscriberAdded() {
	if m == nil {
		return
	}
	m.subscribers.Inc()
}

func (m *Workflow) SubscriberRemoved() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

func (m *Workflow) EventDropped() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}
