package telegram

import (
	"strconv"
	"strings"

	"github.com/faxed-bot/sharkv1/internal/domain"
)

// adminAction is a decoded admin decision button press.
type adminAction struct {
	Decision domain.Decision
	OrderID  int64
}

// parseAdminCallback decodes "admin:<DECISION>:<order-id>" data.
func parseAdminCallback(data string) (adminAction, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "admin" {
		return adminAction{}, false
	}
	decision := domain.Decision(parts[1])
	if _, ok := decision.Status(); !ok {
		return adminAction{}, false
	}
	orderID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || orderID <= 0 {
		return adminAction{}, false
	}
	return adminAction{Decision: decision, OrderID: orderID}, true
}

// parseDurationCallback decodes "duration:<product>:<duration>" data.
func parseDurationCallback(data string) (product, duration string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != "duration" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// parseCredentials splits "email,password" text from the buyer.
func parseCredentials(text string) (email, password string, ok bool) {
	email, password, found := strings.Cut(strings.TrimSpace(text), ",")
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if !found || email == "" || password == "" {
		return "", "", false
	}
	return email, password, true
}
