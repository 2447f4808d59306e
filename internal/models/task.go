// internal/models/task.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the coarse execution state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// AcceptanceStatus is the assignee's response to an assigned task.
type AcceptanceStatus string

const (
	AcceptancePending            AcceptanceStatus = "pending"
	AcceptanceAccepted           AcceptanceStatus = "accepted"
	AcceptanceRejected           AcceptanceStatus = "rejected"
	AcceptanceExtensionRequested AcceptanceStatus = "extension_requested"
)

func (s AcceptanceStatus) Valid() bool {
	switch s {
	case AcceptancePending, AcceptanceAccepted, AcceptanceRejected, AcceptanceExtensionRequested:
		return true
	}
	return false
}

type EditRequestStatus string

const (
	EditRequestNone     EditRequestStatus = "none"
	EditRequestPending  EditRequestStatus = "pending"
	EditRequestApproved EditRequestStatus = "approved"
	EditRequestRejected EditRequestStatus = "rejected"
)

func (s EditRequestStatus) Valid() bool {
	switch s {
	case EditRequestNone, EditRequestPending, EditRequestApproved, EditRequestRejected:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Comment is a single immutable entry of a task's comment log.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is the unit of work moved through the acceptance workflow.
// Workflow fields (statuses and their satellite fields) are written only by
// services.WorkflowService.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`

	Status            TaskStatus        `json:"status"`
	AcceptanceStatus  AcceptanceStatus  `json:"acceptance_status"`
	EditRequestStatus EditRequestStatus `json:"edit_request_status"`

	StartDate        *time.Time `json:"start_date,omitempty"`
	Deadline         time.Time  `json:"deadline"`
	OriginalDeadline time.Time  `json:"original_deadline"`

	RequestedDeadline *time.Time `json:"requested_deadline,omitempty"`
	ExtensionReason   string     `json:"extension_reason,omitempty"`

	EstimatedTimeToComplete string     `json:"estimated_time_to_complete,omitempty"`
	AcceptanceTimestamp     *time.Time `json:"acceptance_timestamp,omitempty"`
	RejectionReason         string     `json:"rejection_reason,omitempty"`

	EditRequestReason  string `json:"edit_request_reason,omitempty"`
	EditRequestDetails string `json:"edit_request_details,omitempty"`

	AssignedUserID int64 `json:"assigned_user_id"`
	CreatedByID    int64 `json:"created_by_id"`
	TeamID         int64 `json:"team_id"`

	Comments []Comment `json:"comments"`

	// Derived on every read and commit; never authoritative.
	IsOverdue bool `json:"is_overdue"`
	IsAtRisk  bool `json:"is_at_risk"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so snapshots never share mutable state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.StartDate = cloneTime(t.StartDate)
	c.RequestedDeadline = cloneTime(t.RequestedDeadline)
	c.AcceptanceTimestamp = cloneTime(t.AcceptanceTimestamp)
	c.Comments = make([]Comment, len(t.Comments))
	copy(c.Comments, t.Comments)
	return &c
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CheckInvariants verifies the satellite fields agree with the status
// fields they belong to.
func (t *Task) CheckInvariants() error {
	if !t.Status.Valid() {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	if !t.AcceptanceStatus.Valid() {
		return fmt.Errorf("unknown acceptance status %q", t.AcceptanceStatus)
	}
	if !t.EditRequestStatus.Valid() {
		return fmt.Errorf("unknown edit request status %q", t.EditRequestStatus)
	}
	if t.RejectionReason != "" && t.AcceptanceStatus != AcceptanceRejected {
		return fmt.Errorf("rejection reason set while acceptance status is %s", t.AcceptanceStatus)
	}
	extension := t.ExtensionReason != "" || t.RequestedDeadline != nil
	if extension != (t.AcceptanceStatus == AcceptanceExtensionRequested) {
		return fmt.Errorf("extension fields out of sync with acceptance status %s", t.AcceptanceStatus)
	}
	edit := t.EditRequestReason != "" || t.EditRequestDetails != ""
	if edit != (t.EditRequestStatus == EditRequestPending) {
		return fmt.Errorf("edit request fields out of sync with edit request status %s", t.EditRequestStatus)
	}
	if t.AcceptanceStatus == AcceptanceAccepted && t.AcceptanceTimestamp == nil {
		return fmt.Errorf("accepted task without acceptance timestamp")
	}
	return nil
}

// NewTaskInput carries the fields a creator supplies for a new task.
type NewTaskInput struct {
	Title          string
	Description    string
	Priority       TaskPriority
	AssignedUserID int64
	TeamID         int64
	StartDate      *time.Time
	Deadline       time.Time
}

// MissingFields lists the required inputs that are absent.
func (in NewTaskInput) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if in.AssignedUserID == 0 {
		missing = append(missing, "assigned_user_id")
	}
	if in.Deadline.IsZero() {
		missing = append(missing, "deadline")
	}
	if in.TeamID == 0 {
		missing = append(missing, "team_id")
	}
	return missing
}

// TaskPatch holds the non-workflow fields that Update may merge.
// Nil means "leave unchanged".
type TaskPatch struct {
	Title          *string       `json:"title"`
	Description    *string       `json:"description"`
	Priority       *TaskPriority `json:"priority"`
	AssignedUserID *int64        `json:"assigned_user_id"`
	TeamID         *int64        `json:"team_id"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.AssignedUserID == nil && p.TeamID == nil
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	AssigneeID       *int64
	CreatorID        *int64
	TeamID           *int64
	Status           *TaskStatus
	AcceptanceStatus *AcceptanceStatus

	// Applied after monitor flags are recomputed.
	OverdueOnly bool
	AtRiskOnly  bool
}

// Matches reports whether t passes the stored-field part of the filter.
func (f TaskFilter) Matches(t *Task) bool {
	if f.AssigneeID != nil && t.AssignedUserID != *f.AssigneeID {
		return false
	}
	if f.CreatorID != nil && t.CreatedByID != *f.CreatorID {
		return false
	}
	if f.TeamID != nil && t.TeamID != *f.TeamID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.AcceptanceStatus != nil && t.AcceptanceStatus != *f.AcceptanceStatus {
		return false
	}
	return true
}
