package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/faxed-bot/sharkv1/internal/app"
	"github.com/faxed-bot/sharkv1/internal/domain"
)

const notConfigured = "Not configured"

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛒 Order", "menu:order")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📦 My Orders", "menu:orders")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("👤 Profile", "menu:profile")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📞 Support", "menu:support")),
	)
}

func productsKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(domain.Catalog)+1)
	for _, p := range domain.Catalog {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Name, "product:"+p.Name),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu:home"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func durationsKeyboard(product domain.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(product.Plans)+1)
	for _, plan := range product.Plans {
		label := fmt.Sprintf("%s - ₹%d", plan.Duration, plan.Price)
		data := fmt.Sprintf("duration:%s:%s", product.Name, plan.Duration)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu:order"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func accountTypeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Use My Account", "acct:USER_PROVIDED")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Use Seller Account", "acct:OUR_ACCOUNT")),
	)
}

func paymentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("I Have Paid", "paid")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Main Menu", "menu:home")),
	)
}

func adminKeyboard(orderID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", fmt.Sprintf("admin:APPROVE:%d", orderID)),
			tgbotapi.NewInlineKeyboardButtonData("Reject", fmt.Sprintf("admin:REJECT:%d", orderID)),
		),
	)
}

func renderSummary(d app.Draft) string {
	return fmt.Sprintf(
		"Order Summary\nProduct: %s\nDuration: %s\nPrice: ₹%d\nAccount Type: %s",
		d.Product, d.Duration, d.Price, d.AccountType,
	)
}

// renderPaymentInstructions shows the configured payment destinations.
// Missing ones render as the literal "Not configured", never blank.
func renderPaymentInstructions(d app.Draft, upiID, binanceID string) string {
	if upiID == "" {
		upiID = notConfigured
	}
	if binanceID == "" {
		binanceID = notConfigured
	}
	return fmt.Sprintf(
		"%s\n\nPayment Instructions:\nUPI: %s\nBinance ID: %s\n\nSend Transaction ID OR upload payment screenshot after paying.",
		renderSummary(d), upiID, binanceID,
	)
}

func renderOrderList(orders []domain.Order) string {
	if len(orders) == 0 {
		return "You have no orders yet."
	}
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("• Order #%d | %s %s | %s", o.ID, o.Product, o.Duration, o.Status))
	}
	return strings.Join(lines, "\n")
}

func renderProfile(buyerID int64, username string, stats domain.BuyerStats) string {
	display := "N/A"
	if username != "" {
		display = "@" + username
	}
	return fmt.Sprintf(
		"Profile\nUser ID: %d\nUsername: %s\nTotal Orders: %d\nApproved Orders: %d",
		buyerID, display, stats.Total, stats.Approved,
	)
}

func renderAdminOrder(o domain.Order) string {
	username := "N/A"
	if o.BuyerName != "" {
		username = o.BuyerName
	}
	txn := "N/A"
	if o.PaymentTxn != nil && *o.PaymentTxn != "" {
		txn = *o.PaymentTxn
	}
	return fmt.Sprintf(
		"New Order:\nOrder ID: #%d\nUser: %s (%d)\nProduct: %s\nDuration: %s\nPrice: ₹%d\nAccount Type: %s\nTxn ID: %s",
		o.ID, username, o.BuyerID, o.Product, o.Duration, o.Price, o.AccountType, txn,
	)
}

func renderBuyerOutcome(orderID int64, status domain.Status) string {
	return fmt.Sprintf("Your Order #%d has been %s.", orderID, status)
}
