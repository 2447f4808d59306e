// Package monitor derives the overdue and at-risk flags of a task from its
// stored fields and the current time.
package monitor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

// DefaultAtRiskWindow is how close to the deadline an in-progress task
// becomes at risk regardless of its estimate.
const DefaultAtRiskWindow = 24 * time.Hour

// The count must stand alone: no sign, decimal point or letters directly
// before it, and the unit must end at a word boundary.
var estimatePattern = regexp.MustCompile(`(?i)(?:^|[^\w.\-])(\d+)\s*(hour|day|week)s?\b`)

var estimateUnits = map[string]time.Duration{
	"hour": time.Hour,
	"day":  24 * time.Hour,
	"week": 7 * 24 * time.Hour,
}

// Flags are the derived monitoring facts of a task.
type Flags struct {
	IsOverdue bool `json:"is_overdue"`
	IsAtRisk  bool `json:"is_at_risk"`
}

// ParseEstimate turns a free-form estimate such as "2 days" or "1 Week"
// into a duration. Anything it cannot read yields zero.
func ParseEstimate(s string) time.Duration {
	m := estimatePattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	unit := estimateUnits[strings.ToLower(m[2])]
	if n > int64(math.MaxInt64/unit) {
		return 0
	}
	return time.Duration(n) * unit
}

// Monitor evaluates flags with a configurable at-risk window.
type Monitor struct {
	AtRiskWindow time.Duration
}

func New(window time.Duration) Monitor {
	if window <= 0 {
		window = DefaultAtRiskWindow
	}
	return Monitor{AtRiskWindow: window}
}

// Evaluate is pure: the same task and instant always give the same flags.
func (m Monitor) Evaluate(t *models.Task, now time.Time) Flags {
	if t == nil || t.Status != models.StatusInProgress {
		return Flags{}
	}
	f := Flags{IsOverdue: now.After(t.Deadline)}
	if t.AcceptanceTimestamp == nil || t.EstimatedTimeToComplete == "" {
		return f
	}
	estimated := t.AcceptanceTimestamp.Add(ParseEstimate(t.EstimatedTimeToComplete))
	f.IsAtRisk = !estimated.Before(t.Deadline) || t.Deadline.Sub(now) < m.window()
	return f
}

// Apply evaluates and writes the flags onto t.
func (m Monitor) Apply(t *models.Task, now time.Time) Flags {
	f := m.Evaluate(t, now)
	if t != nil {
		t.IsOverdue = f.IsOverdue
		t.IsAtRisk = f.IsAtRisk
	}
	return f
}

func (m Monitor) window() time.Duration {
	if m.AtRiskWindow <= 0 {
		return DefaultAtRiskWindow
	}
	return m.AtRiskWindow
}
