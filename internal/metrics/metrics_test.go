package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestWorkflowCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflow(reg)

	m.ObserveOperation("accept", "ok")
	m.ObserveOperation("accept", "ok")
	m.ObserveOperation("accept", "invalid_transition")
	m.VersionConflict("approve_extension")
	m.MonitorFlags(true, false)

	if got := counterValue(t, reg, "taskhub_workflow_operations_total", map[string]string{"op": "accept", "result": "ok"}); got != 2 {
		t.Errorf("accept ok = %v, want 2", got)
	}
	if got := counterValue(t, reg, "taskhub_workflow_version_conflicts_total", map[string]string{"op": "approve_extension"}); got != 1 {
		t.Errorf("conflicts = %v, want 1", got)
	}
	if got := counterValue(t, reg, "taskhub_monitor_flags_total", map[string]string{"flag": "overdue"}); got != 1 {
		t.Errorf("overdue flags = %v, want 1", got)
	}
}

func TestNilWorkflowIsNoop(t *testing.T) {
	var m *Workflow
	m.ObserveOperation("accept", "ok")
	m.VersionConflict("accept")
	m.Retry("accept")
	m.MonitorFlags(true, true)
	m.SubscriberAdded()
	m.SubscriberRemoved()
	m.EventDropped()
}
