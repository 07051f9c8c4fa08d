package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockTelegram struct {
	mock.Mock
}

func (m *mockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func TestTelegramSender(t *testing.T) {
	bot := new(mockTelegram)
	sender := NewTelegramSender(bot, 42)

	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 42 && msg.Text == "Başlık\n\nGövde"
	})).Return(tgbotapi.Message{}, nil).Once()

	assert.NoError(t, sender.Send(context.Background(), "Başlık", "Gövde"))
	bot.AssertExpectations(t)

	bot.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("blocked")).Once()
	assert.ErrorContains(t, sender.Send(context.Background(), "x", ""), "blocked")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "x", "y"), context.Canceled)
	bot.AssertNumberOfCalls(t, "Send", 2)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	assert.NoError(t, NewLogSender(&logger).Send(context.Background(), "Başlık", "Gövde"))
	assert.Contains(t, buf.String(), `"title":"Başlık"`)
	assert.Contains(t, buf.String(), `"body":"Gövde"`)
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "only", formatMessage("only", ""))
	assert.Equal(t, "a\n\nb", formatMessage("a", "b"))
}
