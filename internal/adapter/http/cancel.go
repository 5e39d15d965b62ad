package httpadapter

import (
	"net/http"
)

// handleCancelQueued cancels a waiting request. No refund is involved
// because queued requests were never charged. A request that already left
// the queue produces HTTP 409.
func (h *Handler) handleCancelQueued(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	if err := h.svc.CancelQueued(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "cancelled"})
}

// handleCancelActive cancels a running request and returns the prorated
// refund. A second cancel of the same request produces HTTP 409; a refund
// is issued at most once.
func (h *Handler) handleCancelActive(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	refund, err := h.svc.CancelActive(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "cancelled",
		"refund_amount": refund,
	})
}

// handleRefundPreview returns the amount a cancel-active would refund
// right now, without side effects.
func (h *Handler) handleRefundPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	refund, err := h.svc.PreviewRefund(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"refund_amount": refund})
}
