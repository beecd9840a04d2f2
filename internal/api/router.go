package api

import (
	"net/http"
	"sos-alert-service/internal/api/handlers"
	"sos-alert-service/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies of the HTTP layer. History may be nil, in which case alerts are
// not recorded and /sos/history is not mounted.
type Deps struct {
	Dispatcher handlers.Dispatcher
	History    ports.AlertHistory
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	alerts := &handlers.AlertHandler{Dispatcher: d.Dispatcher, History: d.History, Logger: logger}

	r.Get("/health", handlers.Health)
	r.Post("/sos/send", alerts.Send)
	r.Post("/send-sos-sms", alerts.Send)

	if d.History != nil {
		hist := &handlers.HistoryHandler{History: d.History}
		r.Get("/sos/history", hist.List)
	}

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
