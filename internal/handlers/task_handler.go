package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/authz"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/metrics"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/services"
)

// WorkflowEngine is what the handlers need from services.WorkflowService.
type WorkflowEngine interface {
	Get(ctx context.Context, taskID string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Create(ctx context.Context, creatorID int64, in models.NewTaskInput) (*models.Task, error)
	Update(ctx context.Context, taskID string, actorID int64, patch models.TaskPatch) (*models.Task, error)
	Accept(ctx context.Context, taskID string, actorID int64, estimatedTime string) (*models.Task, error)
	Reject(ctx context.Context, taskID string, actorID int64, reason string) (*models.Task, error)
	RequestExtension(ctx context.Context, taskID string, actorID int64, reason string, requestedDeadline time.Time) (*models.Task, error)
	ApproveExtension(ctx context.Context, taskID string, approverID int64, newDeadline *time.Time) (*models.Task, error)
	RejectExtension(ctx context.Context, taskID string, approverID int64) (*models.Task, error)
	RequestEdit(ctx context.Context, taskID string, actorID int64, reason, details string) (*models.Task, error)
	ApproveEdit(ctx context.Context, taskID string, approverID int64) (*models.Task, error)
	RejectEdit(ctx context.Context, taskID string, approverID int64) (*models.Task, error)
	SetStatus(ctx context.Context, taskID string, actorID int64, to models.TaskStatus) (*models.Task, error)
	AddComment(ctx context.Context, taskID string, actorID int64, content string) (*models.Comment, error)
}

type TaskHandler struct {
	engine  WorkflowEngine
	retry   services.RetryConfig
	metrics *metrics.Workflow
	log     *logrus.Logger
}

func NewTaskHandler(engine WorkflowEngine, retry services.RetryConfig, m *metrics.Workflow, log *logrus.Logger) *TaskHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TaskHandler{engine: engine, retry: retry, metrics: m, log: log}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Title          string              `json:"title"`
		Description    string              `json:"description"`
		Priority       models.TaskPriority `json:"priority"`
		AssignedUserID int64               `json:"assigned_user_id"`
		TeamID         int64               `json:"team_id"`
		StartDate      string              `json:"start_date"` // RFC3339
		Deadline       string              `json:"deadline"`   // RFC3339
	}
	sess, ok := sessionOf(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Info("[task][create][bind][err]")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseTime(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date (RFC3339)", "field": "start_date"})
		return
	}
	deadline, err := parseTime(req.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline (RFC3339)", "field": "deadline"})
		return
	}
	in := models.NewTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		AssignedUserID: req.AssignedUserID,
		TeamID:         req.TeamID,
		StartDate:      start,
	}
	if deadline != nil {
		in.Deadline = *deadline
	}

	task, err := h.engine.Create(c.Request.Context(), sess.UserID, in)
	if err != nil {
		h.fail(c, "create", "", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	task, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get", id, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	var filter models.TaskFilter
	var err error
	for key, dst := range map[string]**int64{
		"assignee_id": &filter.AssigneeID,
		"creator_id":  &filter.CreatorID,
		"team_id":     &filter.TeamID,
	} {
		if *dst, err = queryInt64(c, key); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key, "field": key})
			return
		}
	}
	if v := c.Query("status"); v != "" {
		st := models.TaskStatus(v)
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "field": "status"})
			return
		}
		filter.Status = &st
	}
	if v := c.Query("acceptance_status"); v != "" {
		as := models.AcceptanceStatus(v)
		if !as.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid acceptance_status", "field": "acceptance_status"})
			return
		}
		filter.AcceptanceStatus = &as
	}
	if filter.OverdueOnly, err = queryBool(c, "overdue"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid overdue", "field": "overdue"})
		return
	}
	if filter.AtRiskOnly, err = queryBool(c, "at_risk"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid at_risk", "field": "at_risk"})
		return
	}

	tasks, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "list", "", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

// PATCH /tasks/:id
// Workflow fields such as status are not patchable, so unknown keys are
// rejected instead of being dropped.
func (h *TaskHandler) Update(c *gin.Context) {
	var patch models.TaskPatch
	if err := decodeStrict(c.Request.Body, &patch); err != nil {
		var we *services.WorkflowError
		if errors.As(err, &we) {
			we.Op = "update"
			h.fail(c, "update", c.Param("id"), err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "update", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		return h.engine.Update(ctx, id, actor, patch)
	})
}

// POST /tasks/:id/accept
func (h *TaskHandler) Accept(c *gin.Context) {
	var req struct {
		EstimatedTime string `json:"estimated_time_to_complete"`
	}
	if !bind(c, &req) {
		return
	}
	h.mutate(c, "accept", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		return h.engine.Accept(ctx, id, actor, req.EstimatedTime)
	})
}

// POST /tasks/:id/reject
func (h *TaskHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !bind(c, &req) {
		return
	}
	h.mutate(c, "reject", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		return h.engine.Reject(ctx, id, actor, req.Reason)
	})
}

// POST /tasks/:id/extension
func (h *TaskHandler) RequestExtension(c *gin.Context) {
	var req struct {
		Reason            string `json:"reason"`
		RequestedDeadline string `json:"requested_deadline"` // RFC3339
	}
	if !bind(c, &req) {
		return
	}
	requested, err := parseTime(req.RequestedDeadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requested_deadline (RFC3339)", "field": "requested_deadline"})
		return
	}
	h.mutate(c, "request_extension", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		var d time.Time
		if requested != nil {
			d = *requested
		}
		return h.engine.RequestExtension(ctx, id, actor, req.Reason, d)
	})
}

// POST /tasks/:id/extension/approve
func (h *TaskHandler) ApproveExtension(c *gin.Context) {
	var req struct {
		NewDeadline string `json:"new_deadline"` // RFC3339, optional
	}
	if !bindOptional(c, &req) {
		return
	}
	newDeadline, err := parseTime(req.NewDeadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid new_deadline (RFC3339)", "field": "new_deadline"})
		return
	}
	h.mutate(c, "approve_extension", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		return h.engine.ApproveExtension(ctx, id, actor, newDeadline)
	})
}

// POST /tasks/:id/extension/reject
func (h *TaskHandler) RejectExtension(c *gin.Context) {
	h.mutate(c, "reject_extension", h.engine.RejectExtension)
}

// POST /tasks/:id/edit-request
func (h *TaskHandler) RequestEdit(c *gin.Context) {
	var req struct {
		Reason  string `json:"reason"`
		Details string `json:"details"`
	}
	if !bind(c, &req) {
		return
	}
	h.mutate(c, "request_edit", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		return h.engine.RequestEdit(ctx, id, actor, req.Reason, req.Details)
	})
}

// POST /tasks/:id/edit-request/approve
func (h *TaskHandler) ApproveEdit(c *gin.Context) {
	h.mutate(c, "approve_edit", h.engine.ApproveEdit)
}

// POST /tasks/:id/edit-request/reject
func (h *TaskHandler) RejectEdit(c *gin.Context) {
	h.mutate(c, "reject_edit", h.engine.RejectEdit)
}

// POST /tasks/:id/status
func (h *TaskHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if !bind(c, &req) {
		return
	}
	h.mutate(c, "set_status", func(ctx context.Context, id string, actor int64) (*models.Task, error) {
		return h.engine.SetStatus(ctx, id, actor, req.Status)
	})
}

// POST /tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	const op = "add_comment"
	var req struct {
		Content string `json:"content"`
	}
	if !bind(c, &req) {
		return
	}
	id, sess, ok := h.target(c)
	if !ok {
		return
	}
	var comment *models.Comment
	err := services.RetryOnConflict(c.Request.Context(), h.retry, h.metrics, op, func() error {
		var err error
		comment, err = h.engine.AddComment(c.Request.Context(), id, sess.UserID, req.Content)
		return err
	})
	if err != nil {
		h.fail(c, op, id, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type mutation func(ctx context.Context, taskID string, actorID int64) (*models.Task, error)

// mutate runs one workflow operation for the session user, retrying on
// version conflicts.
func (h *TaskHandler) mutate(c *gin.Context, op string, fn mutation) {
	id, sess, ok := h.target(c)
	if !ok {
		return
	}
	var task *models.Task
	err := services.RetryOnConflict(c.Request.Context(), h.retry, h.metrics, op, func() error {
		var err error
		task, err = fn(c.Request.Context(), id, sess.UserID)
		return err
	})
	if err != nil {
		h.fail(c, op, id, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) target(c *gin.Context) (string, authz.Session, bool) {
	id, ok := taskIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return "", authz.Session{}, false
	}
	sess, ok := sessionOf(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return "", authz.Session{}, false
	}
	return id, sess, true
}

func (h *TaskHandler) fail(c *gin.Context, op, taskID string, err error) {
	status := errorStatus(err)
	entry := h.log.WithFields(logrus.Fields{"op": op, "task_id": taskID, "status": status})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Errorf("[task][%s][err]", op)
	} else {
		entry.Infof("[task][%s][%d] %v", op, status, err)
	}
	c.JSON(status, errorBody(err))
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

const unknownFieldPrefix = "json: unknown field "

// decodeStrict decodes a JSON object and reports an unknown key as a
// validation error naming that key.
func decodeStrict(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	if msg := err.Error(); strings.HasPrefix(msg, unknownFieldPrefix) {
		field := strings.Trim(strings.TrimPrefix(msg, unknownFieldPrefix), `"`)
		return &services.WorkflowError{Kind: services.ErrValidation, Field: field, Msg: "field cannot be updated"}
	}
	return err
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bind(c, dst)
}
