package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's prometheus collectors.
type Metrics struct {
	OrdersSubmitted      prometheus.Counter
	Decisions            *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
}

// New registers the bot collectors on the given registerer. Passing a
// fresh registry keeps tests independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sharkv1",
			Name:      "orders_submitted_total",
			Help:      "Orders committed to the store as PENDING.",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharkv1",
			Name:      "order_decisions_total",
			Help:      "Admin decisions that actually transitioned an order.",
		}, []string{"outcome"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharkv1",
			Name:      "notification_failures_total",
			Help:      "Chat notifications that could not be delivered.",
		}, []string{"recipient"}),
	}
}

// Handler exposes the given registry over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
