package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"theme-ads/internal/core/domain"
)

// AdmissionUseCase is the primary port into the slot engine. It is the
// single entry point for everything that touches the active-slot counter
// or the waiting queue; callers must never reach those directly.
type AdmissionUseCase interface {
	// RequestAdvertisement validates the duration, pre-checks the owner's
	// balance and either admits the request into a free slot (charging the
	// full cost) or appends it to the waiting queue (no charge).
	RequestAdvertisement(ctx context.Context, ownerID string, theme domain.Theme, days int) (*RequestResult, error)

	// CancelQueued cancels a request that is still waiting. The queue is
	// renumbered to stay contiguous. Nothing was charged, so nothing is
	// refunded.
	CancelQueued(ctx context.Context, id uuid.UUID) error

	// CancelActive cancels a running request, refunds the prorated
	// remainder, frees the slot and promotes the queue head if any. It
	// returns the refunded amount. Cancelling twice fails with
	// domain.ErrInvalidTransition; a refund is issued at most once.
	CancelActive(ctx context.Context, id uuid.UUID) (int64, error)

	// PreviewRefund returns the amount CancelActive would refund right
	// now, without side effects.
	PreviewRefund(ctx context.Context, id uuid.UUID) (int64, error)

	// Expire transitions an elapsed active request to expired, frees the
	// slot and promotes the queue head. No refund. Called by the sweeper.
	Expire(ctx context.Context, id uuid.UUID) error

	// GetRequest returns a single request record.
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.AdRequest, error)

	// ListActive returns the bot-facing snapshot of running requests.
	ListActive(ctx context.Context) ([]ActiveAd, error)

	// QueueStatus returns current occupancy and an estimated wait for a
	// new request.
	QueueStatus(ctx context.Context) (*QueueStatus, error)

	// RecordExposure and RecordClick increment analytics counters.
	// Fire-and-forget: unknown ids are silently ignored and no error is
	// ever surfaced to the caller.
	RecordExposure(id uuid.UUID)
	RecordClick(id uuid.UUID)
}

// RequestResult is returned by RequestAdvertisement. QueuePosition is zero
// when the request was admitted directly.
type RequestResult struct {
	RequestID     uuid.UUID
	Status        domain.Status
	QueuePosition int
	PointsCharged int64
}

// ActiveAd is one entry of the bot-facing read surface.
type ActiveAd struct {
	RequestID     uuid.UUID
	OwnerID       string
	Theme         domain.Theme
	ExpiresAt     time.Time
	RemainingTime time.Duration
}

// QueueStatus describes the engine's occupancy. EstimatedWait is a
// heuristic, not a guarantee: the time until enough active requests expire
// for a newly queued request to reach a slot.
type QueueStatus struct {
	ActiveCount    int
	MaxActiveSlots int
	QueuedCount    int
	EstimatedWait  time.Duration
}
