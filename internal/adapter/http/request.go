package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"theme-ads/internal/core/domain"
)

type submitRequestBody struct {
	OwnerID       string `json:"owner_id"`
	ThemeID       string `json:"theme_id"`
	ThemeName     string `json:"theme_name"`
	ThemeCategory string `json:"theme_category"`
	RequestedDays int    `json:"requested_days"`
}

type submitRequestResponse struct {
	RequestID     string `json:"request_id"`
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position,omitempty"`
	PointsCharged int64  `json:"points_charged,omitempty"`
}

// handleSubmitRequest creates a promotion request. The body carries the
// owner, theme and requested duration. On success it returns the resolved
// status: active with the charged amount, or queued with a position.
// Parsing errors produce HTTP 400; validation and balance failures map via
// writeError.
func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.OwnerID == "" {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return
	}
	theme := domain.Theme{ID: body.ThemeID, Name: body.ThemeName, Category: body.ThemeCategory}
	res, err := h.svc.RequestAdvertisement(r.Context(), body.OwnerID, theme, body.RequestedDays)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, submitRequestResponse{
		RequestID:     res.RequestID.String(),
		Status:        string(res.Status),
		QueuePosition: res.QueuePosition,
		PointsCharged: res.PointsCharged,
	})
}

// requestID extracts and parses the {id} path parameter.
func requestID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// handleGetRequest returns a single request record.
func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(r)
	if !ok {
		http.Error(w, "invalid request id", http.StatusBadRequest)
		return
	}
	req, err := h.svc.GetRequest(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"request_id":     req.ID.String(),
		"owner_id":       req.OwnerID,
		"theme_id":       req.Theme.ID,
		"theme_name":     req.Theme.Name,
		"theme_category": req.Theme.Category,
		"requested_days": req.RequestedDays,
		"status":         string(req.Status),
		"queue_position": req.QueuePosition,
		"points_charged": req.PointsCharged,
		"activated_at":   req.ActivatedAt,
		"expires_at":     req.ExpiresAt,
		"cancelled_at":   req.CancelledAt,
		"exposure_count": req.ExposureCount,
		"click_count":    req.ClickCount,
	})
}
