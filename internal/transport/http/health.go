// Package http serves the keep-alive endpoint hosting platforms ping
// and the prometheus scrape target. The bot itself never takes inbound
// HTTP traffic; all buyer and admin interaction happens over Telegram.
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the keep-alive router. metricsHandler serves the
// prometheus registry; pass nil to skip mounting /metrics.
func NewRouter(metricsHandler stdhttp.Handler) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", okHandler)
	r.Get("/healthz", okHandler)
	if metricsHandler != nil {
		r.Method(stdhttp.MethodGet, "/metrics", metricsHandler)
	}
	return r
}

func okHandler(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
