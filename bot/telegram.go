package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of the Telegram client used by the poller.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

// Telegram long-polls for updates and answers them through a Dispatcher.
type Telegram struct {
	api         API
	dispatcher  *Dispatcher
	pollTimeout int
	logger      *slog.Logger
}

// Connect authenticates token against the Telegram API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	return api, nil
}

// NewTelegram builds a poller. pollTimeout is the getUpdates long-poll timeout in seconds.
func NewTelegram(api API, dispatcher *Dispatcher, pollTimeout int, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		api:         api,
		dispatcher:  dispatcher,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Run answers messages until ctx is cancelled or the update channel closes.
func (t *Telegram) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(u)

	t.logger.Info("bot is running")
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handle(update)
		}
	}
}

func (t *Telegram) handle(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return
	}

	reply, ok := t.dispatcher.Handle(msg.Text)
	if !ok {
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := t.api.Send(out); err != nil {
		t.logger.Warn("send reply failed",
			slog.Int64("chat_id", msg.Chat.ID),
			slog.Any("error", err),
		)
	}
}
