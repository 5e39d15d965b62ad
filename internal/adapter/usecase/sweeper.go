package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"theme-ads/internal/core/domain"
)

// ExpirationSweeper periodically expires elapsed active requests and
// triggers promotion into the freed slots. Ticks never overlap: if a sweep
// is still running when the next tick fires, that tick is skipped.
type ExpirationSweeper struct {
	svc      *AdmissionService
	interval time.Duration
	logger   *slog.Logger

	running atomic.Bool
}

// NewExpirationSweeper creates a sweeper over the given service.
func NewExpirationSweeper(svc *AdmissionService, interval time.Duration, logger *slog.Logger) *ExpirationSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirationSweeper{svc: svc, interval: interval, logger: logger}
}

// Run ticks until ctx is cancelled. Intended to be started once as a
// goroutine from main.
func (s *ExpirationSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass: expire every elapsed request, isolating
// failures per item, then flush pending exposure counters. Returns the
// number of requests expired; a skipped (overlapping) sweep returns zero.
func (s *ExpirationSweeper) Sweep(ctx context.Context) int {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("sweep still running, skipping tick")
		return 0
	}
	defer s.running.Store(false)

	// A new tick grants the queue head a fresh promotion attempt.
	s.svc.unblockPromotion()

	elapsed, err := s.svc.store.ListExpired(ctx, s.svc.now())
	if err != nil {
		s.logger.Error("sweep: listing expired requests failed", slog.Any("error", err))
		return 0
	}

	expired := 0
	for _, r := range elapsed {
		if err := s.svc.Expire(ctx, r.ID); err != nil {
			// One bad record must not stall the rest of the batch. An
			// invalid transition just means someone cancelled it first.
			if !errors.Is(err, domain.ErrInvalidTransition) {
				s.logger.Error("sweep: expiring request failed",
					slog.String("request_id", r.ID.String()), slog.Any("error", err))
			}
			continue
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("sweep completed", slog.Int("expired", expired))
	}

	// A queue head that failed promotion on an earlier tick gets its
	// chance here even when nothing expired; the per-tick hold makes this
	// a no-op if a promotion already failed during the expiry loop above.
	s.svc.promote(ctx)

	s.svc.FlushCounters(ctx)
	return expired
}
