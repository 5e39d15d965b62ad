package httpadapter

import (
	"net/http"
	"time"
)

type activeAdResponse struct {
	RequestID        string `json:"request_id"`
	OwnerID          string `json:"owner_id"`
	ThemeID          string `json:"theme_id"`
	ThemeName        string `json:"theme_name"`
	ThemeCategory    string `json:"theme_category"`
	ExpiresAt        string `json:"expires_at"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// handleListActive returns the bot-facing snapshot of currently promoted
// themes. It reads committed state only and is safe to poll frequently.
func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ads, err := h.svc.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]activeAdResponse, 0, len(ads))
	for _, ad := range ads {
		out = append(out, activeAdResponse{
			RequestID:        ad.RequestID.String(),
			OwnerID:          ad.OwnerID,
			ThemeID:          ad.Theme.ID,
			ThemeName:        ad.Theme.Name,
			ThemeCategory:    ad.Theme.Category,
			ExpiresAt:        ad.ExpiresAt.Format(time.RFC3339),
			RemainingSeconds: int64(ad.RemainingTime.Seconds()),
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleQueueStatus reports occupancy and the estimated wait for a new
// request.
func (h *Handler) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.QueueStatus(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"active_count":           status.ActiveCount,
		"max_active_slots":       status.MaxActiveSlots,
		"queued_count":           status.QueuedCount,
		"estimated_wait_seconds": int64(status.EstimatedWait.Seconds()),
	})
}
