package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"theme-ads/internal/core/domain"
)

// AdRequestStore defines durable storage of ad request records. It is an
// outbound port in hexagonal architecture. Implementations return
// domain.ErrNotFound for unknown ids. Status changes go through the
// compare-and-set methods so that concurrent transitions on the same
// record resolve to exactly one winner; FIFO ordering and the capacity
// bound come from the admission service, not from the store.
type AdRequestStore interface {
	// Create persists a new request record.
	Create(ctx context.Context, r *domain.AdRequest) error
	// Get returns a request by id.
	Get(ctx context.Context, id uuid.UUID) (*domain.AdRequest, error)
	// CompareAndSetStatus moves the request from status from to status to
	// and reports whether the transition was applied. When to is cancelled
	// the stored cancellation time is set to at and the queue position is
	// cleared.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (bool, error)
	// ActivateFromQueue moves a queued request to active, recording the
	// activation window and the points charged. Returns false if the
	// request is no longer queued.
	ActivateFromQueue(ctx context.Context, id uuid.UUID, activatedAt, expiresAt time.Time, charged int64) (bool, error)
	// UpdateQueuePositions rewrites the queue position of each listed
	// request, keeping the stored sequence contiguous after a removal.
	UpdateQueuePositions(ctx context.Context, positions map[uuid.UUID]int) error
	// ListActive returns all active requests ordered by expiry.
	ListActive(ctx context.Context) ([]domain.AdRequest, error)
	// ListQueued returns all queued requests ordered by queue position.
	ListQueued(ctx context.Context) ([]domain.AdRequest, error)
	// ListExpired returns active requests whose expiry is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]domain.AdRequest, error)
	// AddCounters adds deltas to a request's exposure and click counters.
	// Unknown ids are a no-op.
	AddCounters(ctx context.Context, id uuid.UUID, exposures, clicks int64) error
}
