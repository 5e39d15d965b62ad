package domain

import (
	"time"

	"github.com/google/uuid"
)

// Published limits of the promoted-theme feature. Capacity and cost are
// additionally configurable via the ENGINE_* environment for tests and
// operations; these are the production defaults.
const (
	MaxActiveSlots = 15
	DailyCost      = 100
	MinDaysPerAd   = 1
	MaxDaysPerAd   = 15
)

// Status is the lifecycle state of an AdRequest. Transitions are
// one-directional: REQUESTED resolves immediately to ACTIVE or QUEUED,
// QUEUED resolves to ACTIVE or CANCELLED, ACTIVE resolves to EXPIRED or
// CANCELLED. EXPIRED and CANCELLED are terminal.
type Status string

const (
	StatusRequested Status = "requested"
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusCancelled
}

// Theme identifies the promoted content.
type Theme struct {
	ID       string
	Name     string
	Category string
}

// AdRequest is a request for one promoted-theme slot. PointsCharged is set
// exactly once, when the request is admitted; QueuePosition is meaningful
// only while Status is queued and is 1-based and contiguous across the
// waiting queue.
type AdRequest struct {
	ID            uuid.UUID
	OwnerID       string
	Theme         Theme
	RequestedDays int
	DailyCost     int64
	Status        Status
	QueuePosition int
	PointsCharged int64
	ActivatedAt   *time.Time
	ExpiresAt     *time.Time
	CancelledAt   *time.Time
	ExposureCount int64
	ClickCount    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cost returns the full up-front charge for the request.
func (r *AdRequest) Cost() int64 {
	return int64(r.RequestedDays) * r.DailyCost
}

// RemainingTime returns the time left until expiry, zero if the request is
// not active or already past its expiry.
func (r *AdRequest) RemainingTime(now time.Time) time.Duration {
	if r.Status != StatusActive || r.ExpiresAt == nil {
		return 0
	}
	d := r.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
