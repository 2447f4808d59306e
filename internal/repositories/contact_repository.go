package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

var ErrContactNotFound = errors.New("contact not found")

// ContactDirectory resolves how to reach a user. Users themselves are owned
// by the surrounding application; this only reads them.
type ContactDirectory interface {
	Contact(ctx context.Context, userID int64) (models.Contact, error)
}

type contactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) ContactDirectory {
	return &contactRepository{db: db}
}

func (r *contactRepository) Contact(ctx context.Context, userID int64) (models.Contact, error) {
	const q = `
		SELECT COALESCE(email, ''), COALESCE(telegram_chat_id, 0), COALESCE(notify_tasks_telegram, TRUE)
		FROM users
		WHERE id = $1`
	c := models.Contact{UserID: userID}
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&c.Email, &c.TelegramChatID, &c.NotifyTelegram)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, ErrContactNotFound
	}
	if err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// StaticContacts is a fixed directory, used when no users table is available.
type StaticContacts map[int64]models.Contact

func (s StaticContacts) Contact(_ context.Context, userID int64) (models.Contact, error) {
	c, ok := s[userID]
	if !ok {
		return models.Contact{}, ErrContactNotFound
	}
	return c, nil
}
