package notify

import (
	"context"
	"fmt"

	"depremkit/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// LogSender writes notifications to the log. Used when no messenger is
// configured.
type LogSender struct {
	logger *zerolog.Logger
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, title, body string) error {
	s.logger.Info().Str("title", title).Str("body", body).Msg("notification")
	return nil
}

// TelegramSender delivers notifications to one Telegram chat.
type TelegramSender struct {
	bot    domain.TelegramAPI
	chatID int64
}

// NewTelegramBot connects to the Bot API.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func NewTelegramSender(bot domain.TelegramAPI, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Send(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, formatMessage(title, body))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatMessage(title, body string) string {
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}
