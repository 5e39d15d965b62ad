package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"theme-ads/internal/core/port"
)

// requestCounters holds pending (unflushed) deltas for one request.
type requestCounters struct {
	exposures atomic.Int64
	clicks    atomic.Int64
}

// ExposureTracker accumulates exposure and click counts lock-free and
// flushes them to the store in the background. Recording never touches the
// slot/queue critical section and never fails from the caller's point of
// view: counts for ids that turn out not to exist are simply dropped at
// flush time.
type ExposureTracker struct {
	counters sync.Map // uuid.UUID -> *requestCounters
}

// NewExposureTracker returns an empty tracker.
func NewExposureTracker() *ExposureTracker {
	return &ExposureTracker{}
}

// RecordExposure increments the exposure counter for id.
func (t *ExposureTracker) RecordExposure(id uuid.UUID) {
	t.get(id).exposures.Add(1)
}

// RecordClick increments the click counter for id.
func (t *ExposureTracker) RecordClick(id uuid.UUID) {
	t.get(id).clicks.Add(1)
}

func (t *ExposureTracker) get(id uuid.UUID) *requestCounters {
	if c, ok := t.counters.Load(id); ok {
		return c.(*requestCounters)
	}
	c, _ := t.counters.LoadOrStore(id, &requestCounters{})
	return c.(*requestCounters)
}

// Flush persists all pending deltas and resets them. A store failure for
// one request is logged and does not block the others; the deltas for a
// failed write are re-added so the next flush retries them.
func (t *ExposureTracker) Flush(ctx context.Context, store port.AdRequestStore, logger *slog.Logger) {
	t.counters.Range(func(key, value any) bool {
		id := key.(uuid.UUID)
		c := value.(*requestCounters)
		exp := c.exposures.Swap(0)
		clk := c.clicks.Swap(0)
		if exp == 0 && clk == 0 {
			t.counters.Delete(id)
			return true
		}
		if err := store.AddCounters(ctx, id, exp, clk); err != nil {
			c.exposures.Add(exp)
			c.clicks.Add(clk)
			logger.Warn("counter flush failed",
				slog.String("request_id", id.String()), slog.Any("error", err))
		}
		return true
	})
}
