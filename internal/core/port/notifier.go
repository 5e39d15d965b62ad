package port

import (
	"context"

	"theme-ads/internal/core/domain"
)

// Notifier delivers user-facing notices about slot transitions. Delivery
// and templating are external concerns; implementations must not block the
// admission path and must never return an error that would abort the
// triggering transition (the engine logs and continues).
type Notifier interface {
	// AdActivated fires when a request is admitted or promoted.
	AdActivated(ctx context.Context, r *domain.AdRequest)
	// AdExpired fires when the sweeper expires a request.
	AdExpired(ctx context.Context, r *domain.AdRequest)
	// PromotionFailed fires when a queued request is auto-cancelled after
	// exhausting promotion retries with an insufficient balance.
	PromotionFailed(ctx context.Context, r *domain.AdRequest)
}
