package models

import "time"

type EventType string

const (
	EventTaskCreated        EventType = "task.created"
	EventTaskUpdated        EventType = "task.updated"
	EventTaskAccepted       EventType = "task.accepted"
	EventTaskRejected       EventType = "task.rejected"
	EventExtensionRequested EventType = "task.extension_requested"
	EventExtensionApproved  EventType = "task.extension_approved"
	EventExtensionRejected  EventType = "task.extension_rejected"
	EventEditRequested      EventType = "task.edit_requested"
	EventEditApproved       EventType = "task.edit_approved"
	EventEditRejected       EventType = "task.edit_rejected"
	EventStatusChanged      EventType = "task.status_changed"
	EventCommentAdded       EventType = "task.comment_added"
)

// TaskEvent is published after a mutation commits. Version lets a consumer
// tell whether its copy of the task is stale.
type TaskEvent struct {
	Type    EventType `json:"type"`
	TaskID  string    `json:"task_id"`
	ActorID int64     `json:"actor_id"`
	Version int64     `json:"version"`
	At      time.Time `json:"at"`
	Task    *Task     `json:"task"`
}

// Contact is how a user can be reached by the notifier.
type Contact struct {
	UserID         int64
	Email          string
	TelegramChatID int64
	NotifyTelegram bool
}
