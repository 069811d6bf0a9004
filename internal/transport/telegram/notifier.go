package telegram

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/faxed-bot/sharkv1/internal/domain"
)

// sender is the slice of the bot API the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

const maxSendRetries = 2

// Notifier delivers lifecycle events over Telegram. Sends are retried
// with bounded exponential backoff; a send that still fails is reported
// to the caller, which treats it as non-fatal.
type Notifier struct {
	bot         sender
	adminChatID int64
	logger      *zap.Logger
}

func NewNotifier(bot sender, adminChatID int64, logger *zap.Logger) *Notifier {
	return &Notifier{bot: bot, adminChatID: adminChatID, logger: logger}
}

// NotifyAdmin sends the new-order review message with decision buttons.
func (n *Notifier) NotifyAdmin(ctx context.Context, order domain.Order) error {
	msg := tgbotapi.NewMessage(n.adminChatID, renderAdminOrder(order))
	msg.ReplyMarkup = adminKeyboard(order.ID)
	return n.send(ctx, msg)
}

// NotifyBuyer tells the buyer the outcome of their order.
func (n *Notifier) NotifyBuyer(ctx context.Context, buyerID, orderID int64, status domain.Status) error {
	msg := tgbotapi.NewMessage(buyerID, renderBuyerOutcome(orderID, status))
	return n.send(ctx, msg)
}

func (n *Notifier) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxSendRetries),
		ctx,
	)
	return backoff.Retry(func() error {
		_, err := n.bot.Send(msg)
		if err != nil {
			n.logger.Debug("telegram send failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		}
		return err
	}, policy)
}
