package services

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/repositories"
)

// EventSource is the subscribing side of the task event hub.
type EventSource interface {
	Subscribe(taskID string) (<-chan models.TaskEvent, func())
}

type TelegramSender interface {
	SendMessage(chatID int64, text string) error
}

// NotificationService tells the other party of a task about workflow events:
// requests go to the creator, decisions go to the assignee.
type NotificationService struct {
	contacts repositories.ContactDirectory
	email    EmailService
	tg       TelegramSender
	log      *logrus.Logger
}

func NewNotificationService(contacts repositories.ContactDirectory, email EmailService, tg TelegramSender, log *logrus.Logger) *NotificationService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NotificationService{contacts: contacts, email: email, tg: tg, log: log}
}

// Run consumes events until ctx is cancelled or the source closes the stream.
func (n *NotificationService) Run(ctx context.Context, src EventSource) {
	events, cancel := src.Subscribe("")
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			n.Handle(ctx, ev)
		}
	}
}

// Handle delivers one event. Delivery failures are logged and never returned
// because the transition is already committed.
func (n *NotificationService) Handle(ctx context.Context, ev models.TaskEvent) {
	if ev.Task == nil {
		return
	}
	headline := eventHeadline(ev.Type)
	if headline == "" {
		return
	}
	for _, userID := range recipients(ev) {
		n.deliver(ctx, userID, headline, ev)
	}
}

func recipients(ev models.TaskEvent) []int64 {
	t := ev.Task
	var ids []int64
	switch ev.Type {
	case models.EventTaskAccepted, models.EventTaskRejected,
		models.EventExtensionRequested, models.EventEditRequested:
		ids = []int64{t.CreatedByID}
	case models.EventCommentAdded:
		ids = []int64{t.CreatedByID, t.AssignedUserID}
	default:
		ids = []int64{t.AssignedUserID}
	}
	out := ids[:0]
	seen := map[int64]bool{}
	for _, id := range ids {
		if id == 0 || id == ev.ActorID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (n *NotificationService) deliver(ctx context.Context, userID int64, headline string, ev models.TaskEvent) {
	entry := n.log.WithFields(logrus.Fields{"event": ev.Type, "task_id": ev.TaskID, "user_id": userID})

	c, err := n.contacts.Contact(ctx, userID)
	if errors.Is(err, repositories.ErrContactNotFound) {
		entry.Debug("[notify][skip] no contact")
		return
	}
	if err != nil {
		entry.WithError(err).Warn("[notify][contact][err]")
		return
	}

	body := formatTask(headline, ev)
	if n.tg != nil && c.NotifyTelegram && c.TelegramChatID != 0 {
		if err := n.tg.SendMessage(c.TelegramChatID, body); err != nil {
			entry.WithError(err).Warn("[notify][tg][err]")
		}
	}
	if n.email != nil && c.Email != "" {
		subject := headline + ": " + ev.Task.Title
		if err := n.email.SendTaskEmail(c.Email, subject, strings.ReplaceAll(body, "\n", "<br>\n")); err != nil {
			entry.WithError(err).Warn("[notify][email][err]")
		}
	}
}

func eventHeadline(t models.EventType) string {
	switch t {
	case models.EventTaskCreated:
		return "New task assigned"
	case models.EventTaskUpdated:
		return "Task updated"
	case models.EventTaskAccepted:
		return "Task accepted"
	case models.EventTaskRejected:
		return "Task rejected"
	case models.EventExtensionRequested:
		return "Deadline extension requested"
	case models.EventExtensionApproved:
		return "Deadline extension approved"
	case models.EventExtensionRejected:
		return "Deadline extension rejected"
	case models.EventEditRequested:
		return "Edit requested"
	case models.EventEditApproved:
		return "Edit request approved"
	case models.EventEditRejected:
		return "Edit request rejected"
	case models.EventStatusChanged:
		return "Task status changed"
	case models.EventCommentAdded:
		return "New comment"
	}
	return ""
}

func formatTask(headline string, ev models.TaskEvent) string {
	t := ev.Task
	var b strings.Builder
	b.WriteString(headline + "\n")
	b.WriteString("• <b>" + html.EscapeString(t.Title) + "</b>\n") // parse_mode=HTML
	b.WriteString("• Status: <code>" + string(t.Status) + "</code> / <code>" + string(t.AcceptanceStatus) + "</code>\n")
	b.WriteString("• Deadline: <code>" + t.Deadline.Format("2006-01-02 15:04") + "</code>")

	switch ev.Type {
	case models.EventTaskRejected:
		b.WriteString("\n• Reason: " + html.EscapeString(t.RejectionReason))
	case models.EventExtensionRequested:
		b.WriteString("\n• Reason: " + html.EscapeString(t.ExtensionReason))
		if t.RequestedDeadline != nil {
			b.WriteString("\n• Requested: <code>" + t.RequestedDeadline.Format("2006-01-02 15:04") + "</code>")
		}
	case models.EventEditRequested:
		b.WriteString("\n• Reason: " + html.EscapeString(t.EditRequestReason))
		b.WriteString("\n• Details: " + html.EscapeString(t.EditRequestDetails))
	case models.EventCommentAdded:
		if n := len(t.Comments); n > 0 {
			b.WriteString("\n• Comment: " + html.EscapeString(t.Comments[n-1].Content))
		}
	}
	return b.String()
}
