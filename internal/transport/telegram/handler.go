package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/faxed-bot/sharkv1/internal/app"
	"github.com/faxed-bot/sharkv1/internal/domain"
)

// Handler turns Telegram updates into tracker and service calls. It
// never interprets raw payloads beyond decoding them into intents; all
// lifecycle rules live in the app package.
type Handler struct {
	bot       *tgbotapi.BotAPI
	tracker   *app.DraftTracker
	orders    *app.OrderService
	upiID     string
	binanceID string
	logger    *zap.Logger
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	tracker *app.DraftTracker,
	orders *app.OrderService,
	upiID, binanceID string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:       bot,
		tracker:   tracker,
		orders:    orders,
		upiID:     upiID,
		binanceID: binanceID,
		logger:    logger,
	}
}

// Run long-polls for updates until the context is canceled. Each update
// is handled inline: Telegram delivers one update per chat at a time,
// so buyer dialogs never interleave with themselves.
func (h *Handler) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := h.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil || q.From == nil {
		return
	}
	h.answer(q.ID, "")

	data := q.Data
	switch {
	case data == "menu:home":
		h.edit(q, "Main Menu", mainMenuKeyboard())
	case data == "menu:order":
		h.startOrder(q, false)
	case data == "order:restart":
		h.startOrder(q, true)
	case data == "menu:orders":
		h.showOrders(ctx, q)
	case data == "menu:profile":
		h.showProfile(ctx, q)
	case data == "menu:support":
		h.edit(q, "Support: Please message this bot with your issue. Our team will respond soon.", mainMenuKeyboard())
	case data == "paid":
		h.editPlain(q, "Send Transaction ID OR upload payment screenshot.")
	case strings.HasPrefix(data, "product:"):
		h.selectProduct(q, data[len("product:"):])
	case strings.HasPrefix(data, "duration:"):
		h.selectDuration(q, data)
	case strings.HasPrefix(data, "acct:"):
		h.selectAccountType(q, data[len("acct:"):])
	case strings.HasPrefix(data, "admin:"):
		h.adminDecide(ctx, q, data)
	}
}

func (h *Handler) startOrder(q *tgbotapi.CallbackQuery, discard bool) {
	_, err := h.tracker.Start(q.From.ID, q.From.UserName, discard)
	if errors.Is(err, domain.ErrDraftInProgress) {
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Discard & Restart", "order:restart")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Main Menu", "menu:home")),
		)
		h.edit(q, "You already have an order in progress.", markup)
		return
	}
	h.edit(q, "Choose a product:", productsKeyboard())
}

func (h *Handler) showOrders(ctx context.Context, q *tgbotapi.CallbackQuery) {
	orders, err := h.orders.OrdersFor(ctx, q.From.ID)
	if err != nil {
		h.logger.Error("list orders failed", zap.Int64("buyer_id", q.From.ID), zap.Error(err))
		h.edit(q, "Could not load your orders right now. Please try again.", mainMenuKeyboard())
		return
	}
	h.edit(q, renderOrderList(orders), mainMenuKeyboard())
}

func (h *Handler) showProfile(ctx context.Context, q *tgbotapi.CallbackQuery) {
	stats, err := h.orders.ProfileFor(ctx, q.From.ID)
	if err != nil {
		h.logger.Error("profile counts failed", zap.Int64("buyer_id", q.From.ID), zap.Error(err))
		h.edit(q, "Could not load your profile right now. Please try again.", mainMenuKeyboard())
		return
	}
	h.edit(q, renderProfile(q.From.ID, q.From.UserName, stats), mainMenuKeyboard())
}

func (h *Handler) selectProduct(q *tgbotapi.CallbackQuery, name string) {
	res, err := h.tracker.Advance(q.From.ID, app.Input{Kind: app.InputProduct, Product: name})
	if err != nil {
		h.reprompt(q, err, res.Stage)
		return
	}
	product, _ := domain.FindProduct(res.Draft.Product)
	h.edit(q, fmt.Sprintf("Selected %s. Choose duration:", product.Name), durationsKeyboard(product))
}

func (h *Handler) selectDuration(q *tgbotapi.CallbackQuery, data string) {
	_, duration, ok := parseDurationCallback(data)
	if !ok {
		return
	}
	res, err := h.tracker.Advance(q.From.ID, app.Input{Kind: app.InputDuration, Duration: duration})
	if err != nil {
		h.reprompt(q, err, res.Stage)
		return
	}
	switch res.Stage {
	case app.StageSelectAccountType:
		h.edit(q, "Choose account type:", accountTypeKeyboard())
	case app.StageAwaitPayment:
		h.edit(q, renderPaymentInstructions(res.Draft, h.upiID, h.binanceID), paymentKeyboard())
	}
}

func (h *Handler) selectAccountType(q *tgbotapi.CallbackQuery, value string) {
	res, err := h.tracker.Advance(q.From.ID, app.Input{
		Kind:        app.InputAccountType,
		AccountType: domain.AccountType(value),
	})
	if err != nil {
		h.reprompt(q, err, res.Stage)
		return
	}
	switch res.Stage {
	case app.StageCredentials:
		h.editPlain(q, "Please send your email and password in this format:\nemail,password")
	case app.StageAwaitPayment:
		h.edit(q, renderPaymentInstructions(res.Draft, h.upiID, h.binanceID), paymentKeyboard())
	}
}

func (h *Handler) adminDecide(ctx context.Context, q *tgbotapi.CallbackQuery, data string) {
	action, ok := parseAdminCallback(data)
	if !ok {
		return
	}
	res, err := h.orders.Decide(ctx, app.DecideInput{
		OrderID:  action.OrderID,
		Decision: action.Decision,
		AdminID:  q.From.ID,
	})
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		h.alert(q.ID, "Unauthorized")
	case errors.Is(err, domain.ErrOrderNotFound):
		h.editPlain(q, fmt.Sprintf("Order #%d not found.", action.OrderID))
	case err != nil:
		h.logger.Error("decision failed", zap.Int64("order_id", action.OrderID), zap.Error(err))
		h.alert(q.ID, "Could not apply the decision. Please tap again.")
	case res.Changed:
		h.editPlain(q, fmt.Sprintf("Order #%d marked as %s.", action.OrderID, res.Status))
	default:
		h.editPlain(q, fmt.Sprintf("Order #%d was already %s.", action.OrderID, res.Status))
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil {
		return
	}
	if m.IsCommand() {
		if m.Command() == "start" {
			h.tracker.Abandon(m.From.ID)
			h.reply(m.Chat.ID, "Welcome to SharkV1! Choose an option:", mainMenuKeyboard())
		}
		return
	}

	draft, active := h.tracker.Active(m.From.ID)
	if !active {
		h.replyPlain(m.Chat.ID, "Use /start to open the menu.")
		return
	}

	switch draft.Stage {
	case app.StageCredentials:
		h.receiveCredentials(m)
	case app.StageAwaitPayment:
		h.receiveEvidence(ctx, m)
	default:
		h.replyPlain(m.Chat.ID, "Please use the buttons above to continue your order.")
	}
}

func (h *Handler) receiveCredentials(m *tgbotapi.Message) {
	email, password, ok := parseCredentials(m.Text)
	if !ok {
		h.replyPlain(m.Chat.ID, "Invalid format. Send as: email,password")
		return
	}
	res, err := h.tracker.Advance(m.From.ID, app.Input{
		Kind:     app.InputCredentials,
		Email:    email,
		Password: password,
	})
	if err != nil {
		h.replyPlain(m.Chat.ID, "Invalid format. Send as: email,password")
		return
	}
	h.reply(m.Chat.ID, renderPaymentInstructions(res.Draft, h.upiID, h.binanceID), paymentKeyboard())
}

func (h *Handler) receiveEvidence(ctx context.Context, m *tgbotapi.Message) {
	evidence := m.Text
	if evidence == "" && len(m.Photo) > 0 {
		evidence = "PHOTO_FILE_ID:" + m.Photo[len(m.Photo)-1].FileID
	}
	if evidence == "" {
		h.replyPlain(m.Chat.ID, "Please send a transaction ID text or a payment screenshot.")
		return
	}

	res, err := h.tracker.Advance(m.From.ID, app.Input{Kind: app.InputEvidence, Evidence: evidence})
	if err != nil || res.Completed == nil {
		h.replyPlain(m.Chat.ID, "Please send a transaction ID text or a payment screenshot.")
		return
	}

	submit, err := h.orders.Submit(ctx, *res.Completed)
	switch {
	case errors.Is(err, domain.ErrSubmitInFlight):
		h.replyPlain(m.Chat.ID, "Your order is being processed, one moment.")
	case err != nil:
		h.logger.Error("submit failed", zap.Int64("buyer_id", m.From.ID), zap.Error(err))
		h.replyPlain(m.Chat.ID, "Something went wrong saving your order. Please send your payment evidence again.")
		// Reopen the draft at the payment stage so the retry reuses
		// the same submission token.
		h.tracker.Restore(*res.Completed)
	default:
		h.reply(m.Chat.ID,
			fmt.Sprintf("Payment evidence received for Order #%d. Awaiting admin review.", submit.OrderID),
			mainMenuKeyboard(),
		)
	}
}

func (h *Handler) reprompt(q *tgbotapi.CallbackQuery, err error, stage app.Stage) {
	if errors.Is(err, domain.ErrNoActiveDraft) {
		h.edit(q, "No active order. Choose an option:", mainMenuKeyboard())
		return
	}
	switch stage {
	case app.StageSelectProduct:
		h.edit(q, "Choose a product:", productsKeyboard())
	case app.StageSelectDuration:
		if draft, ok := h.tracker.Active(q.From.ID); ok {
			if p, found := domain.FindProduct(draft.Product); found {
				h.edit(q, "Choose duration:", durationsKeyboard(p))
				return
			}
		}
		h.edit(q, "Choose a product:", productsKeyboard())
	case app.StageSelectAccountType:
		h.edit(q, "Choose account type:", accountTypeKeyboard())
	case app.StageCredentials:
		h.editPlain(q, "Please send your email and password in this format:\nemail,password")
	case app.StageAwaitPayment:
		h.editPlain(q, "Send Transaction ID OR upload payment screenshot.")
	default:
		h.edit(q, "Main Menu", mainMenuKeyboard())
	}
}

func (h *Handler) reply(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	h.sendLogged(msg)
}

func (h *Handler) replyPlain(chatID int64, text string) {
	h.sendLogged(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) edit(q *tgbotapi.CallbackQuery, text string, markup tgbotapi.InlineKeyboardMarkup) {
	h.sendLogged(tgbotapi.NewEditMessageTextAndMarkup(q.Message.Chat.ID, q.Message.MessageID, text, markup))
}

func (h *Handler) editPlain(q *tgbotapi.CallbackQuery, text string) {
	h.sendLogged(tgbotapi.NewEditMessageText(q.Message.Chat.ID, q.Message.MessageID, text))
}

func (h *Handler) sendLogged(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Warn("telegram reply failed", zap.Error(err))
	}
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.logger.Debug("callback answer failed", zap.Error(err))
	}
}

func (h *Handler) alert(callbackID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		h.logger.Debug("callback alert failed", zap.Error(err))
	}
}
