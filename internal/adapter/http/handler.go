package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"log/slog"

	"theme-ads/internal/core/port"
)

// Handler contains dependencies and routes. It is an inbound adapter for
// HTTP. It holds the admission use case to execute business logic and a
// logger for structured logging. Routes are registered on a chi.Router for
// convenient method handling. The bot-facing tracking endpoints share a
// token-bucket throttle.
type Handler struct {
	svc    port.AdmissionUseCase
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured. It accepts an
// AdmissionUseCase implementation and a logger. The returned Handler
// registers handlers for each endpoint on a new chi.Router.
func NewHandler(svc port.AdmissionUseCase, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger}
	r := chi.NewRouter()

	track := trackLimiter(defaultTrackRate, defaultTrackBurst)

	r.Route("/api/v1/ads", func(r chi.Router) {
		r.Post("/request", h.handleSubmitRequest)
		r.Get("/active", h.handleListActive)
		r.Get("/queue/status", h.handleQueueStatus)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetRequest)
			r.Post("/cancel-queued", h.handleCancelQueued)
			r.Post("/cancel-active", h.handleCancelActive)
			r.Get("/refund-preview", h.handleRefundPreview)
			r.With(track).Post("/exposure", h.handleExposure)
			r.With(track).Post("/click", h.handleClick)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
