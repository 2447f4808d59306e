package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService sends HTML messages through the Bot API. A service built
// without a token is disabled and silently skips every send.
type TelegramService struct {
	bot botSender
	log *logrus.Logger
}

func NewTelegramService(botToken string, log *logrus.Logger) (*TelegramService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if botToken == "" {
		return &TelegramService{log: log}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.WithField("bot", bot.Self.UserName).Info("[tg][init] authorized")
	return &TelegramService{bot: bot, log: log}, nil
}

func (t *TelegramService) Enabled() bool {
	return t != nil && t.bot != nil
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if !t.Enabled() || chatID == 0 {
		if t != nil {
			t.log.WithField("chat_id", chatID).Debug("[tg][skip] bot disabled or chat unknown")
		}
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		t.log.WithError(err).WithField("chat_id", chatID).Warn("[tg][send][err]")
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	t.log.WithField("chat_id", chatID).Debug("[tg][send][ok]")
	return nil
}
