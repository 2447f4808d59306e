package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrVersionConflict = errors.New("task version conflict")
)

// TaskStore is the durable home of task records. Put is a compare-and-swap
// on the record version: expectedVersion 0 inserts a new record, any other
// value must equal the stored version or the write is refused with
// ErrVersionConflict.
type TaskStore interface {
	Get(ctx context.Context, id string) (*models.Task, error)
	Put(ctx context.Context, task *models.Task, expectedVersion int64) error
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskStore {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, priority, status, acceptance_status, edit_request_status,
       start_date, deadline, original_deadline, requested_deadline, extension_reason,
       estimated_time_to_complete, acceptance_timestamp, rejection_reason,
       edit_request_reason, edit_request_details, assigned_user_id, created_by_id, team_id,
       comments, is_overdue, is_at_risk, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t                                          models.Task
		startDate, requestedDeadline, acceptedAt   sql.NullTime
		extensionReason, estimate, rejectionReason sql.NullString
		editReason, editDetails                    sql.NullString
		comments                                   []byte
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.AcceptanceStatus, &t.EditRequestStatus,
		&startDate, &t.Deadline, &t.OriginalDeadline, &requestedDeadline, &extensionReason,
		&estimate, &acceptedAt, &rejectionReason,
		&editReason, &editDetails, &t.AssignedUserID, &t.CreatedByID, &t.TeamID,
		&comments, &t.IsOverdue, &t.IsAtRisk, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		t.StartDate = &startDate.Time
	}
	if requestedDeadline.Valid {
		t.RequestedDeadline = &requestedDeadline.Time
	}
	if acceptedAt.Valid {
		t.AcceptanceTimestamp = &acceptedAt.Time
	}
	t.ExtensionReason = extensionReason.String
	t.EstimatedTimeToComplete = estimate.String
	t.RejectionReason = rejectionReason.String
	t.EditRequestReason = editReason.String
	t.EditRequestDetails = editDetails.String

	t.Comments = []models.Comment{}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &t.Comments); err != nil {
			return nil, fmt.Errorf("decode comments of task %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

func (r *taskRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Put(ctx context.Context, task *models.Task, expectedVersion int64) error {
	comments := task.Comments
	if comments == nil {
		comments = []models.Comment{}
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("encode comments of task %s: %w", task.ID, err)
	}

	if expectedVersion == 0 {
		return r.insert(ctx, task, commentsJSON)
	}

	query := `
		UPDATE tasks SET
			title=$1, description=$2, priority=$3, status=$4, acceptance_status=$5, edit_request_status=$6,
			start_date=$7, deadline=$8, requested_deadline=$9, extension_reason=NULLIF($10, ''),
			estimated_time_to_complete=NULLIF($11, ''), acceptance_timestamp=$12, rejection_reason=NULLIF($13, ''),
			edit_request_reason=NULLIF($14, ''), edit_request_details=NULLIF($15, ''),
			assigned_user_id=$16, team_id=$17, comments=$18, is_overdue=$19, is_at_risk=$20,
			version=$21, updated_at=$22
		WHERE id=$23 AND version=$24`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Priority, task.Status, task.AcceptanceStatus, task.EditRequestStatus,
		task.StartDate, task.Deadline, task.RequestedDeadline, task.ExtensionReason,
		task.EstimatedTimeToComplete, task.AcceptanceTimestamp, task.RejectionReason,
		task.EditRequestReason, task.EditRequestDetails,
		task.AssignedUserID, task.TeamID, commentsJSON, task.IsOverdue, task.IsAtRisk,
		task.Version, task.UpdatedAt,
		task.ID, expectedVersion,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, task.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrTaskNotFound
	}
	return ErrVersionConflict
}

func (r *taskRepository) insert(ctx context.Context, task *models.Task, commentsJSON []byte) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12, ''),NULLIF($13, ''),$14,NULLIF($15, ''),
		        NULLIF($16, ''),NULLIF($17, ''),$18,$19,$20,$21,$22,$23,$24,$25,$26)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Priority, task.Status, task.AcceptanceStatus, task.EditRequestStatus,
		task.StartDate, task.Deadline, task.OriginalDeadline, task.RequestedDeadline, task.ExtensionReason,
		task.EstimatedTimeToComplete, task.AcceptanceTimestamp, task.RejectionReason,
		task.EditRequestReason, task.EditRequestDetails, task.AssignedUserID, task.CreatedByID, task.TeamID,
		commentsJSON, task.IsOverdue, task.IsAtRisk, task.Version, task.CreatedAt, task.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrVersionConflict
	}
	return err
}

func (r *taskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	add := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}
	if filter.AssigneeID != nil {
		add("assigned_user_id", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		add("created_by_id", *filter.CreatorID)
	}
	if filter.TeamID != nil {
		add("team_id", *filter.TeamID)
	}
	if filter.Status != nil {
		add("status", *filter.Status)
	}
	if filter.AcceptanceStatus != nil {
		add("acceptance_status", *filter.AcceptanceStatus)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
