package notify

import (
	"context"
	"log/slog"

	"theme-ads/internal/core/domain"
	"theme-ads/internal/core/port"
)

// LogNotifier writes notices to the structured log. Real delivery (DM,
// webhook) lives outside this service; this adapter keeps the engine's
// notification points observable without it.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AdActivated(_ context.Context, r *domain.AdRequest) {
	n.logger.Info("ad activated",
		slog.String("request_id", r.ID.String()),
		slog.String("owner_id", r.OwnerID),
		slog.String("theme", r.Theme.Name))
}

func (n *LogNotifier) AdExpired(_ context.Context, r *domain.AdRequest) {
	n.logger.Info("ad expired",
		slog.String("request_id", r.ID.String()),
		slog.String("owner_id", r.OwnerID))
}

func (n *LogNotifier) PromotionFailed(_ context.Context, r *domain.AdRequest) {
	n.logger.Info("promotion failed, request cancelled",
		slog.String("request_id", r.ID.String()),
		slog.String("owner_id", r.OwnerID))
}

var _ port.Notifier = (*LogNotifier)(nil)
