package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faxed-bot/sharkv1/internal/domain"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	attempts int
	err      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.attempts++
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestNotifier_NotifyAdmin(t *testing.T) {
	t.Parallel()

	bot := &fakeSender{}
	notifier := NewNotifier(bot, 555, zap.NewNop())

	txn := "TXN123"
	err := notifier.NotifyAdmin(context.Background(), domain.Order{
		ID:          3,
		BuyerID:     10,
		BuyerName:   "alice",
		Product:     "YT",
		Duration:    "1M",
		Price:       25,
		AccountType: domain.AccountOurAccount,
		PaymentTxn:  &txn,
	})
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(555), msg.ChatID)
	assert.Contains(t, msg.Text, "Order ID: #3")
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "admin:APPROVE:3", *markup.InlineKeyboard[0][0].CallbackData)
}

func TestNotifier_NotifyBuyer(t *testing.T) {
	t.Parallel()

	bot := &fakeSender{}
	notifier := NewNotifier(bot, 555, zap.NewNop())

	err := notifier.NotifyBuyer(context.Background(), 10, 3, domain.StatusRejected)
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)

	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(10), msg.ChatID)
	assert.Equal(t, "Your Order #3 has been REJECTED.", msg.Text)
}

func TestNotifier_BoundedRetry(t *testing.T) {
	t.Parallel()

	bot := &fakeSender{err: errors.New("telegram down")}
	notifier := NewNotifier(bot, 555, zap.NewNop())

	err := notifier.NotifyBuyer(context.Background(), 10, 3, domain.StatusApproved)
	require.Error(t, err)
	assert.Equal(t, maxSendRetries+1, bot.attempts, "retries are bounded")
}
