package httpadapter

import (
	"net/http"
)

// handleExposure records one ad exposure. Fire-and-forget: unknown ids are
// accepted and dropped internally, and no engine error ever reaches the
// bot. Only a malformed id is rejected.
func (h *Handler) handleExposure(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	h.svc.RecordExposure(id)
	w.WriteHeader(http.StatusAccepted)
}

// handleClick records one ad click. Same semantics as handleExposure.
func (h *Handler) handleClick(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	h.svc.RecordClick(id)
	w.WriteHeader(http.StatusAccepted)
}
