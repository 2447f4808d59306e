package monitor

import (
	"testing"
	"time"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

func TestParseEstimate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"2 days", 48 * time.Hour},
		{"1 day", 24 * time.Hour},
		{"3 Hours", 3 * time.Hour},
		{"1 WEEK", 7 * 24 * time.Hour},
		{"5days", 5 * 24 * time.Hour},
		{"about 4 hours maybe", 4 * time.Hour},
		{"soon", 0},
		{"", 0},
		{"2 months", 0},
		{"99999999999999999999 days", 0},
		{"1.5 days", 0},
		{"-3 days", 0},
		{"1 weekday", 0},
		{"x2 days", 0},
		{"done in 12 hours.", 12 * time.Hour},
	}
	for _, c := range cases {
		if got := ParseEstimate(c.in); got != c.want {
			t.Errorf("ParseEstimate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

var defaultMonitor = New(DefaultAtRiskWindow)

func inProgress(accepted time.Time, deadline time.Time, estimate string) *models.Task {
	return &models.Task{
		Status:                  models.StatusInProgress,
		AcceptanceStatus:        models.AcceptanceAccepted,
		AcceptanceTimestamp:     &accepted,
		EstimatedTimeToComplete: estimate,
		Deadline:                deadline,
	}
}

func TestEvaluate_Overdue(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	task := inProgress(t0, t0.Add(10*24*time.Hour), "2 days")

	if f := defaultMonitor.Evaluate(task, t0); f.IsOverdue {
		t.Fatalf("expected not overdue at acceptance, got %+v", f)
	}
	if f := defaultMonitor.Evaluate(task, t0.Add(11*24*time.Hour)); !f.IsOverdue {
		t.Fatalf("expected overdue past deadline, got %+v", f)
	}
	if f := defaultMonitor.Evaluate(task, task.Deadline); f.IsOverdue {
		t.Fatalf("deadline instant itself is not overdue, got %+v", f)
	}
}

func TestEvaluate_AtRisk(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("estimate beyond deadline", func(t *testing.T) {
		task := inProgress(t0, t0.Add(24*time.Hour), "3 days")
		if f := defaultMonitor.Evaluate(task, t0); !f.IsAtRisk {
			t.Fatalf("expected at risk, got %+v", f)
		}
	})
	t.Run("estimate equal to deadline", func(t *testing.T) {
		task := inProgress(t0, t0.Add(48*time.Hour), "2 days")
		if f := defaultMonitor.Evaluate(task, t0); !f.IsAtRisk {
			t.Fatalf("expected at risk, got %+v", f)
		}
	})
	t.Run("comfortable", func(t *testing.T) {
		task := inProgress(t0, t0.Add(10*24*time.Hour), "2 days")
		if f := defaultMonitor.Evaluate(task, t0); f.IsAtRisk {
			t.Fatalf("expected not at risk, got %+v", f)
		}
	})
	t.Run("inside final day", func(t *testing.T) {
		task := inProgress(t0, t0.Add(10*24*time.Hour), "2 days")
		if f := defaultMonitor.Evaluate(task, task.Deadline.Add(-23*time.Hour)); !f.IsAtRisk {
			t.Fatalf("expected at risk within a day of deadline, got %+v", f)
		}
	})
	t.Run("no estimate", func(t *testing.T) {
		task := inProgress(t0, t0.Add(time.Hour), "")
		if f := defaultMonitor.Evaluate(task, t0); f.IsAtRisk {
			t.Fatalf("expected not at risk without estimate, got %+v", f)
		}
	})
	t.Run("custom window", func(t *testing.T) {
		task := inProgress(t0, t0.Add(10*24*time.Hour), "2 days")
		m := New(72 * time.Hour)
		if f := m.Evaluate(task, task.Deadline.Add(-48*time.Hour)); !f.IsAtRisk {
			t.Fatalf("expected at risk within custom window, got %+v", f)
		}
	})
}

func TestEvaluate_OnlyInProgress(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, st := range []models.TaskStatus{models.StatusPending, models.StatusCompleted} {
		task := inProgress(t0, t0.Add(time.Hour), "3 days")
		task.Status = st
		if f := defaultMonitor.Evaluate(task, t0.Add(48*time.Hour)); f != (Flags{}) {
			t.Errorf("status %s: expected no flags, got %+v", st, f)
		}
	}
	if f := defaultMonitor.Evaluate(nil, t0); f != (Flags{}) {
		t.Errorf("nil task: expected no flags, got %+v", f)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	task := inProgress(t0, t0.Add(24*time.Hour), "3 days")
	now := t0.Add(30 * time.Hour)

	first := defaultMonitor.Evaluate(task, now)
	second := defaultMonitor.Evaluate(task, now)
	if first != second {
		t.Fatalf("evaluate not idempotent: %+v vs %+v", first, second)
	}
}

func TestApply_WritesFlags(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	task := inProgress(t0, t0.Add(24*time.Hour), "3 days")
	task.IsOverdue = true // stale cache

	f := New(0).Apply(task, t0)
	if task.IsOverdue != f.IsOverdue || task.IsAtRisk != f.IsAtRisk {
		t.Fatalf("flags not written: task=%+v flags=%+v", task, f)
	}
	if task.IsOverdue || !task.IsAtRisk {
		t.Fatalf("unexpected flags %+v", f)
	}
}
