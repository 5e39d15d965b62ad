package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"theme-ads/internal/core/domain"
)

// writeError maps domain error kinds onto HTTP status codes. Validation
// and business-rule errors surface with a specific message; everything
// else is logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "request not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInsufficientPoints):
		http.Error(w, "insufficient points", http.StatusPaymentRequired)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, "invalid state for this operation", http.StatusConflict)
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoding should rarely fail; log and move on
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
