package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

// CommentLog appends to a task's comment sequence. There is no way to edit
// or remove an entry once written.
type CommentLog struct {
	newID func() string
}

func NewCommentLog(newID func() string) CommentLog {
	if newID == nil {
		newID = uuid.NewString
	}
	return CommentLog{newID: newID}
}

func (l CommentLog) Append(t *models.Task, actorID int64, content string, now time.Time) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, validationf("add_comment", "content", "must not be empty")
	}
	newID := l.newID
	if newID == nil {
		newID = uuid.NewString
	}
	c := models.Comment{
		ID:        newID(),
		Content:   content,
		UserID:    actorID,
		CreatedAt: now,
	}
	t.Comments = append(t.Comments, c)
	return c, nil
}
