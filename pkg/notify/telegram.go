package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram forwards notices to one chat. Delivery is queued and sent by Run;
// when the queue is full the notice is dropped and logged.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	queue  chan Notice
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, queue: make(chan Notice, 64), log: log}, nil
}

func (t *Telegram) Deliver(n Notice) {
	select {
	case t.queue <- n:
	default:
		t.log.Warn("telegram queue full, dropping notice", "title", n.Title)
	}
}

// Run sends queued notices until ctx is done.
func (t *Telegram) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-t.queue:
			msg := tgbotapi.NewMessage(t.chatID, format(n))
			if _, err := t.api.Send(msg); err != nil {
				t.log.Error("send failed", "err", err)
			}
		}
	}
}

func format(n Notice) string {
	prefix := "OK"
	if n.Level == LevelError {
		prefix = "ERROR"
	}
	if n.Description == "" {
		return fmt.Sprintf("[%s] %s", prefix, n.Title)
	}
	return fmt.Sprintf("[%s] %s\n%s", prefix, n.Title, n.Description)
}
