package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/authz"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/metrics"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/monitor"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/repositories"
)

type Clock func() time.Time

// EventPublisher receives every committed mutation.
type EventPublisher interface {
	Publish(ev models.TaskEvent)
}

// WorkflowService is the only writer of the workflow fields of a task.
// Every mutation verifies the caller's session, loads the current record,
// validates the transition, re-derives the monitor flags and commits with a
// version check. Mutations of one task are serialized in process; the
// version check catches writers in other processes.
type WorkflowService struct {
	store    repositories.TaskStore
	monitor  monitor.Monitor
	comments CommentLog
	events   EventPublisher
	metrics  *metrics.Workflow
	log      *logrus.Logger
	now      Clock
	newID    func() string
	locks    *taskLocks
}

type WorkflowOption func(*WorkflowService)

func WithClock(c Clock) WorkflowOption {
	return func(s *WorkflowService) { s.now = c }
}

func WithMonitor(m monitor.Monitor) WorkflowOption {
	return func(s *WorkflowService) { s.monitor = m }
}

func WithEventPublisher(p EventPublisher) WorkflowOption {
	return func(s *WorkflowService) { s.events = p }
}

func WithMetrics(m *metrics.Workflow) WorkflowOption {
	return func(s *WorkflowService) { s.metrics = m }
}

func WithLogger(l *logrus.Logger) WorkflowOption {
	return func(s *WorkflowService) { s.log = l }
}

// WithIDGenerator replaces uuid generation for tasks and comments.
func WithIDGenerator(f func() string) WorkflowOption {
	return func(s *WorkflowService) { s.newID = f }
}

func NewWorkflowService(store repositories.TaskStore, opts ...WorkflowOption) *WorkflowService {
	s := &WorkflowService{
		store:   store,
		monitor: monitor.New(monitor.DefaultAtRiskWindow),
		log:     logrus.StandardLogger(),
		now:     time.Now,
		newID:   uuid.NewString,
		locks:   newTaskLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.comments = NewCommentLog(s.newID)
	return s
}

// ===== Reads =====

// Get returns the task with monitor flags computed for the current instant.
func (s *WorkflowService) Get(ctx context.Context, taskID string) (*models.Task, error) {
	t, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, s.storeError("get", taskID, err)
	}
	f := s.monitor.Apply(t, s.now())
	s.metrics.MonitorFlags(f.IsOverdue, f.IsAtRisk)
	return t, nil
}

func (s *WorkflowService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	now := s.now()
	out := tasks[:0]
	for i := range tasks {
		f := s.monitor.Apply(&tasks[i], now)
		if filter.OverdueOnly && !f.IsOverdue {
			continue
		}
		if filter.AtRiskOnly && !f.IsAtRisk {
			continue
		}
		out = append(out, tasks[i])
	}
	return out, nil
}

// ===== Creation =====

func (s *WorkflowService) Create(ctx context.Context, creatorID int64, in models.NewTaskInput) (task *models.Task, err error) {
	const op = "create"
	defer func() { s.observe(op, taskIDOf(task), creatorID, err) }()

	sess, err := s.authorize(ctx, op, "", creatorID)
	if err != nil {
		return nil, err
	}
	if missing := in.MissingFields(); len(missing) > 0 {
		return nil, validationf(op, strings.Join(missing, ","), "required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, validationf(op, "priority", "unknown priority %q", in.Priority)
	}
	if in.StartDate != nil && in.StartDate.After(in.Deadline) {
		return nil, validationf(op, "start_date", "must not be after the deadline")
	}
	if !authz.IsElevated(sess.RoleID) && in.AssignedUserID != sess.UserID {
		return nil, unauthorizedf(op, "", "members can assign tasks only to themselves")
	}

	now := s.now()
	task = &models.Task{
		ID:                s.newID(),
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Priority:          in.Priority,
		Status:            models.StatusPending,
		AcceptanceStatus:  models.AcceptancePending,
		EditRequestStatus: models.EditRequestNone,
		StartDate:         in.StartDate,
		Deadline:          in.Deadline,
		OriginalDeadline:  in.Deadline,
		AssignedUserID:    in.AssignedUserID,
		CreatedByID:       creatorID,
		TeamID:            in.TeamID,
		Comments:          []models.Comment{},
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.monitor.Apply(task, now)
	if err := task.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("%s: invariant violated: %w", op, err)
	}
	if err := s.store.Put(ctx, task, 0); err != nil {
		return nil, s.storeError(op, task.ID, err)
	}
	s.publish(models.EventTaskCreated, task, creatorID, now)
	return task, nil
}

// ===== Assignee response =====

func (s *WorkflowService) Accept(ctx context.Context, taskID string, actorID int64, estimatedTime string) (*models.Task, error) {
	const op = "accept"
	return s.mutate(ctx, op, taskID, actorID, models.EventTaskAccepted, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireAssignee(op, sess, t); err != nil {
			return err
		}
		estimatedTime = strings.TrimSpace(estimatedTime)
		if estimatedTime == "" {
			return validationf(op, "estimated_time_to_complete", "required")
		}
		if t.AcceptanceStatus != models.AcceptancePending ||
			!canTransition(t.AcceptanceStatus, models.AcceptanceAccepted, AcceptanceTransitions) {
			return invalidTransitionf(op, t.ID, string(t.AcceptanceStatus), "acceptance status is %s, expected pending", t.AcceptanceStatus)
		}
		if t.Status == models.StatusCompleted {
			return invalidTransitionf(op, t.ID, string(t.Status), "task is already completed")
		}

		t.AcceptanceStatus = models.AcceptanceAccepted
		if t.Status == models.StatusPending {
			t.Status = models.StatusInProgress
		}
		stampAcceptance(t, now)
		t.EstimatedTimeToComplete = estimatedTime
		return nil
	})
}

func (s *WorkflowService) Reject(ctx context.Context, taskID string, actorID int64, reason string) (*models.Task, error) {
	const op = "reject"
	return s.mutate(ctx, op, taskID, actorID, models.EventTaskRejected, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireAssignee(op, sess, t); err != nil {
			return err
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return validationf(op, "rejection_reason", "required")
		}
		if t.AcceptanceStatus != models.AcceptancePending ||
			!canTransition(t.AcceptanceStatus, models.AcceptanceRejected, AcceptanceTransitions) {
			return invalidTransitionf(op, t.ID, string(t.AcceptanceStatus), "acceptance status is %s, expected pending", t.AcceptanceStatus)
		}

		t.AcceptanceStatus = models.AcceptanceRejected
		t.RejectionReason = reason
		return nil
	})
}

// ===== Deadline extension =====

func (s *WorkflowService) RequestExtension(ctx context.Context, taskID string, actorID int64, reason string, requestedDeadline time.Time) (*models.Task, error) {
	const op = "request_extension"
	return s.mutate(ctx, op, taskID, actorID, models.EventExtensionRequested, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireAssignee(op, sess, t); err != nil {
			return err
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return validationf(op, "extension_reason", "required")
		}
		if requestedDeadline.IsZero() {
			return validationf(op, "requested_deadline", "required")
		}
		if t.Status == models.StatusCompleted {
			return invalidTransitionf(op, t.ID, string(t.Status), "task is already completed")
		}
		if t.AcceptanceStatus == models.AcceptanceExtensionRequested {
			return invalidTransitionf(op, t.ID, string(t.AcceptanceStatus), "an extension request is already pending")
		}
		if !canTransition(t.AcceptanceStatus, models.AcceptanceExtensionRequested, AcceptanceTransitions) {
			return invalidTransitionf(op, t.ID, string(t.AcceptanceStatus), "cannot request an extension while acceptance status is %s", t.AcceptanceStatus)
		}

		requested := requestedDeadline
		t.AcceptanceStatus = models.AcceptanceExtensionRequested
		t.ExtensionReason = reason
		t.RequestedDeadline = &requested
		return nil
	})
}

// ApproveExtension moves the deadline to newDeadline, or to the requested
// deadline when newDeadline is nil.
func (s *WorkflowService) ApproveExtension(ctx context.Context, taskID string, approverID int64, newDeadline *time.Time) (*models.Task, error) {
	const op = "approve_extension"
	return s.mutate(ctx, op, taskID, approverID, models.EventExtensionApproved, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireApprover(op, sess, t); err != nil {
			return err
		}
		if newDeadline != nil && newDeadline.IsZero() {
			return validationf(op, "new_deadline", "must be a valid time")
		}
		if err := requireExtensionPending(op, t); err != nil {
			return err
		}

		switch {
		case newDeadline != nil:
			t.Deadline = *newDeadline
		case t.RequestedDeadline != nil:
			t.Deadline = *t.RequestedDeadline
		}
		resolveExtension(t, now)
		return nil
	})
}

func (s *WorkflowService) RejectExtension(ctx context.Context, taskID string, approverID int64) (*models.Task, error) {
	const op = "reject_extension"
	return s.mutate(ctx, op, taskID, approverID, models.EventExtensionRejected, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireApprover(op, sess, t); err != nil {
			return err
		}
		if err := requireExtensionPending(op, t); err != nil {
			return err
		}
		resolveExtension(t, now)
		return nil
	})
}

func requireExtensionPending(op string, t *models.Task) error {
	if t.AcceptanceStatus != models.AcceptanceExtensionRequested ||
		!canTransition(t.AcceptanceStatus, models.AcceptanceAccepted, AcceptanceTransitions) {
		return invalidTransitionf(op, t.ID, string(t.AcceptanceStatus), "acceptance status is %s, expected extension_requested", t.AcceptanceStatus)
	}
	return nil
}

// resolveExtension returns the task to accepted. A task whose extension was
// requested before it was ever accepted starts work here just as Accept would,
// but without an estimate, so only the overdue flag can fire for it.
func resolveExtension(t *models.Task, now time.Time) {
	t.AcceptanceStatus = models.AcceptanceAccepted
	if t.Status == models.StatusPending {
		t.Status = models.StatusInProgress
	}
	t.ExtensionReason = ""
	t.RequestedDeadline = nil
	stampAcceptance(t, now)
}

// stampAcceptance records the first moment the task became accepted.
func stampAcceptance(t *models.Task, now time.Time) {
	if t.AcceptanceTimestamp == nil {
		at := now
		t.AcceptanceTimestamp = &at
	}
}

// ===== Edit requests =====

func (s *WorkflowService) RequestEdit(ctx context.Context, taskID string, actorID int64, reason, details string) (*models.Task, error) {
	const op = "request_edit"
	return s.mutate(ctx, op, taskID, actorID, models.EventEditRequested, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireAssignee(op, sess, t); err != nil {
			return err
		}
		reason = strings.TrimSpace(reason)
		details = strings.TrimSpace(details)
		if reason == "" {
			return validationf(op, "edit_request_reason", "required")
		}
		if details == "" {
			return validationf(op, "edit_request_details", "required")
		}
		if t.Status == models.StatusCompleted {
			return invalidTransitionf(op, t.ID, string(t.Status), "task is already completed")
		}
		if !canTransition(t.EditRequestStatus, models.EditRequestPending, EditRequestTransitions) {
			return invalidTransitionf(op, t.ID, string(t.EditRequestStatus), "an edit request is already pending")
		}

		t.EditRequestStatus = models.EditRequestPending
		t.EditRequestReason = reason
		t.EditRequestDetails = details
		return nil
	})
}

func (s *WorkflowService) ApproveEdit(ctx context.Context, taskID string, approverID int64) (*models.Task, error) {
	return s.resolveEdit(ctx, "approve_edit", taskID, approverID, models.EditRequestApproved, models.EventEditApproved)
}

func (s *WorkflowService) RejectEdit(ctx context.Context, taskID string, approverID int64) (*models.Task, error) {
	return s.resolveEdit(ctx, "reject_edit", taskID, approverID, models.EditRequestRejected, models.EventEditRejected)
}

func (s *WorkflowService) resolveEdit(ctx context.Context, op, taskID string, approverID int64, to models.EditRequestStatus, ev models.EventType) (*models.Task, error) {
	return s.mutate(ctx, op, taskID, approverID, ev, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireApprover(op, sess, t); err != nil {
			return err
		}
		if t.EditRequestStatus != models.EditRequestPending || !canTransition(t.EditRequestStatus, to, EditRequestTransitions) {
			return invalidTransitionf(op, t.ID, string(t.EditRequestStatus), "edit request status is %s, expected pending", t.EditRequestStatus)
		}
		t.EditRequestStatus = to
		t.EditRequestReason = ""
		t.EditRequestDetails = ""
		return nil
	})
}

// ===== Status, comments, plain fields =====

func (s *WorkflowService) SetStatus(ctx context.Context, taskID string, actorID int64, to models.TaskStatus) (*models.Task, error) {
	const op = "set_status"
	return s.mutate(ctx, op, taskID, actorID, models.EventStatusChanged, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireApprover(op, sess, t); err != nil {
			return err
		}
		if !to.Valid() {
			return validationf(op, "status", "unknown status %q", to)
		}
		if !canTransition(t.Status, to, StatusTransitions) {
			return invalidTransitionf(op, t.ID, string(t.Status), "cannot move status from %s to %s", t.Status, to)
		}
		t.Status = to
		return nil
	})
}

func (s *WorkflowService) AddComment(ctx context.Context, taskID string, actorID int64, content string) (*models.Comment, error) {
	const op = "add_comment"
	var added models.Comment
	_, err := s.mutate(ctx, op, taskID, actorID, models.EventCommentAdded, func(sess authz.Session, t *models.Task, now time.Time) error {
		c, err := s.comments.Append(t, sess.UserID, content, now)
		if err != nil {
			return err
		}
		added = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// Update merges non-workflow fields. Status and the acceptance and edit
// request fields cannot be reached from here.
func (s *WorkflowService) Update(ctx context.Context, taskID string, actorID int64, patch models.TaskPatch) (*models.Task, error) {
	const op = "update"
	return s.mutate(ctx, op, taskID, actorID, models.EventTaskUpdated, func(sess authz.Session, t *models.Task, now time.Time) error {
		if err := requireApprover(op, sess, t); err != nil {
			return err
		}
		if patch.Empty() {
			return validationf(op, "", "no fields to update")
		}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return validationf(op, "title", "must not be empty")
			}
			t.Title = title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Priority != nil {
			if !patch.Priority.Valid() {
				return validationf(op, "priority", "unknown priority %q", *patch.Priority)
			}
			t.Priority = *patch.Priority
		}
		if patch.AssignedUserID != nil {
			if *patch.AssignedUserID == 0 {
				return validationf(op, "assigned_user_id", "must not be empty")
			}
			t.AssignedUserID = *patch.AssignedUserID
		}
		if patch.TeamID != nil {
			if *patch.TeamID == 0 {
				return validationf(op, "team_id", "must not be empty")
			}
			t.TeamID = *patch.TeamID
		}
		return nil
	})
}

// ===== Commit path =====

type applyFunc func(sess authz.Session, t *models.Task, now time.Time) error

func (s *WorkflowService) mutate(ctx context.Context, op, taskID string, actorID int64, ev models.EventType, apply applyFunc) (task *models.Task, err error) {
	defer func() { s.observe(op, taskID, actorID, err) }()

	sess, err := s.authorize(ctx, op, taskID, actorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(taskID) == "" {
		return nil, validationf(op, "task_id", "required")
	}

	unlock := s.locks.Lock(taskID)
	defer unlock()

	current, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, s.storeError(op, taskID, err)
	}

	now := s.now()
	next := current.Clone()
	if err := apply(sess, next, now); err != nil {
		return nil, err
	}
	next.UpdatedAt = now
	next.Version = current.Version + 1
	s.monitor.Apply(next, now)
	if err := checkCommit(current, next); err != nil {
		return nil, fmt.Errorf("%s %s: invariant violated: %w", op, taskID, err)
	}

	if err := s.store.Put(ctx, next, current.Version); err != nil {
		return nil, s.storeError(op, taskID, err)
	}
	s.publish(ev, next, actorID, now)
	return next, nil
}

// checkCommit guards the audit fields that no transition may touch.
func checkCommit(before, after *models.Task) error {
	if after.ID != before.ID || after.CreatedByID != before.CreatedByID || !after.CreatedAt.Equal(before.CreatedAt) {
		return errors.New("identity fields changed")
	}
	if !after.OriginalDeadline.Equal(before.OriginalDeadline) {
		return errors.New("original deadline changed")
	}
	if before.AcceptanceTimestamp != nil &&
		(after.AcceptanceTimestamp == nil || !after.AcceptanceTimestamp.Equal(*before.AcceptanceTimestamp)) {
		return errors.New("acceptance timestamp changed")
	}
	if len(after.Comments) < len(before.Comments) {
		return errors.New("comments removed")
	}
	for i := range before.Comments {
		if after.Comments[i] != before.Comments[i] {
			return fmt.Errorf("comment %s edited", before.Comments[i].ID)
		}
	}
	return after.CheckInvariants()
}

// authorize checks the caller-supplied actor id against the session the
// authentication layer established.
func (s *WorkflowService) authorize(ctx context.Context, op, taskID string, actorID int64) (authz.Session, error) {
	sess, ok := authz.SessionFromContext(ctx)
	if !ok {
		return authz.Session{}, unauthorizedf(op, taskID, "no authenticated session")
	}
	if sess.UserID != actorID {
		return authz.Session{}, unauthorizedf(op, taskID, "actor does not match the authenticated user")
	}
	if authz.IsReadOnly(sess.RoleID) {
		return authz.Session{}, unauthorizedf(op, taskID, "read-only role")
	}
	return sess, nil
}

func requireAssignee(op string, sess authz.Session, t *models.Task) error {
	if sess.UserID != t.AssignedUserID {
		return unauthorizedf(op, t.ID, "only the assignee may do this")
	}
	return nil
}

// requireApprover admits the creator of the task or a lead/admin.
func requireApprover(op string, sess authz.Session, t *models.Task) error {
	if sess.UserID != t.CreatedByID && !authz.IsElevated(sess.RoleID) {
		return unauthorizedf(op, t.ID, "only the task creator or a lead may do this")
	}
	return nil
}

func (s *WorkflowService) storeError(op, taskID string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrTaskNotFound):
		return notFound(op, taskID)
	case errors.Is(err, repositories.ErrVersionConflict):
		s.metrics.VersionConflict(op)
		return versionConflict(op, taskID)
	default:
		return fmt.Errorf("%s %s: store: %w", op, taskID, err)
	}
}

func (s *WorkflowService) publish(ev models.EventType, t *models.Task, actorID int64, at time.Time) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.TaskEvent{
		Type:    ev,
		TaskID:  t.ID,
		ActorID: actorID,
		Version: t.Version,
		At:      at,
		Task:    t.Clone(),
	})
}

func (s *WorkflowService) observe(op, taskID string, actorID int64, err error) {
	result := ResultLabel(err)
	s.metrics.ObserveOperation(op, result)

	entry := s.log.WithFields(logrus.Fields{"op": op, "task_id": taskID, "actor_id": actorID})
	switch {
	case err == nil:
		entry.Infof("[workflow][%s][ok]", op)
	case IsBusinessError(err):
		entry.WithField("result", result).Warnf("[workflow][%s][deny] %v", op, err)
	default:
		entry.WithError(err).Errorf("[workflow][%s][err]", op)
	}
}

func taskIDOf(t *models.Task) string {
	if t == nil {
		return ""
	}
	return t.ID
}
