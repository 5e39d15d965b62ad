package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"theme-ads/internal/core/domain"
	"theme-ads/internal/core/port"
)

// Config carries the engine tunables. Zero values fall back to the
// published domain constants.
type Config struct {
	MaxActiveSlots      int
	DailyCost           int64
	PromotionRetryLimit int
}

// AdmissionService decides, under the fixed slot capacity, which requests
// become active, which wait, how waiting requests are promoted when a slot
// frees, and how cancellations are refunded. It is the single entry point
// for every operation that touches the slot counter or the waiting queue.
//
// The pair (slot counter, queue) is mutated only inside the service mutex
// so that admission, cancellation-triggered promotion and sweeper-triggered
// promotion can never double-admit a slot or double-pop the queue head.
// Ledger and store calls happen outside that critical section; a debit
// failing after a tentative admission releases the slot before returning.
type AdmissionService struct {
	store    port.AdRequestStore
	ledger   port.PointsLedger
	notifier port.Notifier
	logger   *slog.Logger

	slots   *SlotAllocator
	queue   *WaitQueue
	tracker *ExposureTracker

	mu sync.Mutex // serializes compound slot/queue transitions

	// promoBlocked is set when a promotion failed on an insufficient
	// balance. The head keeps its place and no further promotion runs
	// until the next sweep clears the flag, so one tick counts as one
	// retry attempt.
	promoBlocked bool

	dailyCost  int64
	retryLimit int

	now func() time.Time
}

// NewAdmissionService creates the engine with the provided collaborators.
func NewAdmissionService(store port.AdRequestStore, ledger port.PointsLedger, notifier port.Notifier, logger *slog.Logger, cfg Config) *AdmissionService {
	if cfg.MaxActiveSlots <= 0 {
		cfg.MaxActiveSlots = domain.MaxActiveSlots
	}
	if cfg.DailyCost <= 0 {
		cfg.DailyCost = domain.DailyCost
	}
	if cfg.PromotionRetryLimit <= 0 {
		cfg.PromotionRetryLimit = 3
	}
	return &AdmissionService{
		store:      store,
		ledger:     ledger,
		notifier:   notifier,
		logger:     logger,
		slots:      NewSlotAllocator(cfg.MaxActiveSlots),
		queue:      NewWaitQueue(),
		tracker:    NewExposureTracker(),
		dailyCost:  cfg.DailyCost,
		retryLimit: cfg.PromotionRetryLimit,
		now:        time.Now,
	}
}

// Restore rebuilds the in-memory slot count and queue order from the store.
// Must be called once before serving traffic.
func (s *AdmissionService) Restore(ctx context.Context) error {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	queued, err := s.store.ListQueued(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for range active {
		if !s.slots.TryAdmit() {
			s.logger.Error("restore found more active requests than slots")
			break
		}
	}
	for _, r := range queued {
		s.queue.Enqueue(queueEntry{ID: r.ID, OwnerID: r.OwnerID, Days: r.RequestedDays})
	}
	return nil
}

// Idempotency keys are unique per triggering event, not just per request.
// A charge and its rollback share a cycle number; every rollback bumps the
// cycle so a later retry debits under a fresh key instead of hitting the
// consumed one as a no-op. The genuine cancellation refund happens at most
// once per request (the terminal transition arbitrates), so it needs no
// cycle.
func chargeKey(id uuid.UUID, cycle int) string {
	return fmt.Sprintf("%s:charge:%d", id, cycle)
}

func rollbackKey(id uuid.UUID, cycle int) string {
	return fmt.Sprintf("%s:rollback:%d", id, cycle)
}

func refundKey(id uuid.UUID) string { return id.String() + ":refund" }

// RequestAdvertisement validates, pre-checks the balance and either admits
// into a free slot (charging the full cost) or appends to the waiting
// queue (no charge).
func (s *AdmissionService) RequestAdvertisement(ctx context.Context, ownerID string, theme domain.Theme, days int) (*port.RequestResult, error) {
	if err := domain.ValidateRequestedDays(days); err != nil {
		return nil, err
	}
	cost := int64(days) * s.dailyCost

	// Read-only pre-check to avoid slot churn on obviously broke owners.
	// The debit below is still the authoritative decision.
	balance, err := s.ledger.Balance(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if balance < cost {
		return nil, domain.ErrInsufficientPoints
	}

	now := s.now()
	req := &domain.AdRequest{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Theme:         theme,
		RequestedDays: days,
		DailyCost:     s.dailyCost,
		Status:        domain.StatusRequested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// A free slot is taken only when nobody is waiting; a request arriving
	// while the queue head waits out a failed promotion must not jump it.
	s.mu.Lock()
	admitted := s.queue.Len() == 0 && s.slots.TryAdmit()
	var position int
	if !admitted {
		position = s.queue.Enqueue(queueEntry{ID: req.ID, OwnerID: ownerID, Days: days})
	}
	s.mu.Unlock()

	if !admitted {
		req.Status = domain.StatusQueued
		req.QueuePosition = position
		if err = s.store.Create(ctx, req); err != nil {
			s.mu.Lock()
			s.queue.Remove(req.ID)
			s.mu.Unlock()
			s.syncQueuePositions(ctx)
			return nil, err
		}
		return &port.RequestResult{
			RequestID:     req.ID,
			Status:        req.Status,
			QueuePosition: position,
		}, nil
	}

	if err = s.ledger.Debit(ctx, ownerID, cost, chargeKey(req.ID, 0)); err != nil {
		// The balance moved between the pre-check and the debit. Release
		// the tentative slot; no partial state is retained.
		s.slots.Release()
		s.promote(ctx)
		return nil, err
	}

	activatedAt := s.now()
	expiresAt := activatedAt.Add(time.Duration(days) * 24 * time.Hour)
	req.Status = domain.StatusActive
	req.PointsCharged = cost
	req.ActivatedAt = &activatedAt
	req.ExpiresAt = &expiresAt

	if err = s.store.Create(ctx, req); err != nil {
		// Undo the charge and the slot so the failure leaves no trace.
		if cerr := s.ledger.Credit(ctx, ownerID, cost, rollbackKey(req.ID, 0)); cerr != nil {
			s.logger.Error("rollback credit failed",
				slog.String("request_id", req.ID.String()), slog.Any("error", cerr))
		}
		s.slots.Release()
		s.promote(ctx)
		return nil, err
	}

	s.notifier.AdActivated(ctx, req)
	return &port.RequestResult{
		RequestID:     req.ID,
		Status:        req.Status,
		PointsCharged: cost,
	}, nil
}

// CancelQueued cancels a waiting request. Nothing was charged, so nothing
// is refunded. Later entries shift down one position.
func (s *AdmissionService) CancelQueued(ctx context.Context, id uuid.UUID) error {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != domain.StatusQueued {
		return domain.ErrInvalidTransition
	}

	// The store transition commits first; the in-memory entry is only
	// removed once the cancellation is durable, so a store failure leaves
	// the queue intact. If a concurrent promotion already popped the entry,
	// its activation will lose against the cancelled row and roll back.
	ok, err := s.store.CompareAndSetStatus(ctx, id, domain.StatusQueued, domain.StatusCancelled, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}

	s.mu.Lock()
	s.queue.Remove(id)
	s.mu.Unlock()
	s.syncQueuePositions(ctx)
	return nil
}

// CancelActive cancels a running request, refunds the prorated remainder,
// frees the slot and promotes the queue head. The store transition
// arbitrates concurrent cancels, so a refund is issued at most once.
func (s *AdmissionService) CancelActive(ctx context.Context, id uuid.UUID) (int64, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if req.Status != domain.StatusActive {
		return 0, domain.ErrInvalidTransition
	}

	now := s.now()
	refund := domain.ProrateRefund(req, now)

	ok, err := s.store.CompareAndSetStatus(ctx, id, domain.StatusActive, domain.StatusCancelled, now)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.ErrInvalidTransition
	}

	if refund > 0 {
		if err = s.ledger.Credit(ctx, req.OwnerID, refund, refundKey(id)); err != nil {
			// The cancellation stands; the idempotency key lets the credit
			// be replayed safely.
			s.logger.Error("refund credit failed",
				slog.String("request_id", id.String()), slog.Any("error", err))
		}
	}

	s.slots.Release()
	s.promote(ctx)
	return refund, nil
}

// PreviewRefund returns what CancelActive would refund right now. Pure.
func (s *AdmissionService) PreviewRefund(ctx context.Context, id uuid.UUID) (int64, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if req.Status != domain.StatusActive {
		return 0, domain.ErrInvalidTransition
	}
	return domain.ProrateRefund(req, s.now()), nil
}

// Expire transitions an elapsed active request to expired with no refund,
// frees the slot and promotes the queue head. Called by the sweeper.
func (s *AdmissionService) Expire(ctx context.Context, id uuid.UUID) error {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Status != domain.StatusActive {
		return domain.ErrInvalidTransition
	}

	ok, err := s.store.CompareAndSetStatus(ctx, id, domain.StatusActive, domain.StatusExpired, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}

	req.Status = domain.StatusExpired
	s.notifier.AdExpired(ctx, req)
	s.slots.Release()
	s.promote(ctx)
	return nil
}

// promote moves the queue head into a freed slot. The slot is reserved
// under the mutex before the ledger round-trip so no admission can steal
// it; on an insufficient balance the head keeps its place and is retried
// on a later sweep, until the retry limit auto-cancels it.
func (s *AdmissionService) promote(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.promoBlocked {
			s.mu.Unlock()
			return
		}
		if !s.slots.TryAdmit() {
			s.mu.Unlock()
			return
		}
		head, ok := s.queue.PopHead()
		if !ok {
			s.slots.Release()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		cost := int64(head.Days) * s.dailyCost
		err := s.ledger.Debit(ctx, head.OwnerID, cost, chargeKey(head.ID, head.Cycle))
		switch {
		case errors.Is(err, domain.ErrInsufficientPoints):
			head.Attempts++
			if head.Attempts >= s.retryLimit {
				s.slots.Release()
				s.cancelUnfunded(ctx, head)
				continue // the freed slot may fit the next head
			}
			s.mu.Lock()
			s.queue.PushFront(head)
			s.slots.Release()
			s.promoBlocked = true
			s.mu.Unlock()
			return
		case err != nil:
			s.mu.Lock()
			s.queue.PushFront(head)
			s.slots.Release()
			s.mu.Unlock()
			s.logger.Error("promotion debit failed",
				slog.String("request_id", head.ID.String()), slog.Any("error", err))
			return
		}

		activatedAt := s.now()
		expiresAt := activatedAt.Add(time.Duration(head.Days) * 24 * time.Hour)
		ok, err = s.store.ActivateFromQueue(ctx, head.ID, activatedAt, expiresAt, cost)
		if err != nil || !ok {
			// Undo the debit and free the slot. The rollback closes this
			// charge cycle; a later retry debits under the next one.
			if cerr := s.ledger.Credit(ctx, head.OwnerID, cost, rollbackKey(head.ID, head.Cycle)); cerr != nil {
				s.logger.Error("promotion rollback credit failed",
					slog.String("request_id", head.ID.String()), slog.Any("error", cerr))
			}
			head.Cycle++
			s.slots.Release()
			if err != nil {
				s.logger.Error("promotion activation failed",
					slog.String("request_id", head.ID.String()), slog.Any("error", err))
				s.mu.Lock()
				s.queue.PushFront(head)
				s.mu.Unlock()
				return
			}
			// No row transitioned. A missing record means the queued write
			// that published this entry has not landed yet; the head keeps
			// its place until it does, up to a bound in case that write
			// failed for good. Anything else is a cancellation that beat us
			// to the record, so the entry is dropped.
			if _, gerr := s.store.Get(ctx, head.ID); errors.Is(gerr, domain.ErrNotFound) {
				head.Misses++
				if head.Misses >= s.retryLimit {
					s.logger.Warn("dropping queue entry with no stored record",
						slog.String("request_id", head.ID.String()))
					continue
				}
				s.mu.Lock()
				s.queue.PushFront(head)
				s.mu.Unlock()
				return
			}
			continue
		}

		s.syncQueuePositions(ctx)
		if req, gerr := s.store.Get(ctx, head.ID); gerr == nil {
			s.notifier.AdActivated(ctx, req)
		}
		return
	}
}

// cancelUnfunded auto-cancels a queued request whose owner could not fund
// its promotion after the configured number of attempts.
func (s *AdmissionService) cancelUnfunded(ctx context.Context, head queueEntry) {
	ok, err := s.store.CompareAndSetStatus(ctx, head.ID, domain.StatusQueued, domain.StatusCancelled, s.now())
	if err != nil {
		s.logger.Error("auto-cancel failed",
			slog.String("request_id", head.ID.String()), slog.Any("error", err))
		return
	}
	if !ok {
		return
	}
	s.syncQueuePositions(ctx)
	if req, gerr := s.store.Get(ctx, head.ID); gerr == nil {
		s.notifier.PromotionFailed(ctx, req)
	}
	s.logger.Warn("queued request auto-cancelled after failed promotions",
		slog.String("request_id", head.ID.String()),
		slog.Int("attempts", head.Attempts))
}

// unblockPromotion lifts the per-tick promotion hold. Called by the
// sweeper at the start of each tick.
func (s *AdmissionService) unblockPromotion() {
	s.mu.Lock()
	s.promoBlocked = false
	s.mu.Unlock()
}

// syncQueuePositions writes the current in-memory positions through to the
// store. Position drift here is cosmetic (the in-memory queue stays
// authoritative for ordering), so failures are logged, not surfaced.
func (s *AdmissionService) syncQueuePositions(ctx context.Context) {
	s.mu.Lock()
	positions := s.queue.Positions()
	s.mu.Unlock()
	if err := s.store.UpdateQueuePositions(ctx, positions); err != nil {
		s.logger.Warn("queue position sync failed", slog.Any("error", err))
	}
}

// GetRequest returns a single request record.
func (s *AdmissionService) GetRequest(ctx context.Context, id uuid.UUID) (*domain.AdRequest, error) {
	return s.store.Get(ctx, id)
}

// ListActive returns the bot-facing snapshot of running requests. It reads
// the store directly and never enters the slot/queue critical section.
func (s *AdmissionService) ListActive(ctx context.Context) ([]port.ActiveAd, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	ads := make([]port.ActiveAd, 0, len(active))
	for _, r := range active {
		if r.ExpiresAt == nil {
			continue
		}
		ads = append(ads, port.ActiveAd{
			RequestID:     r.ID,
			OwnerID:       r.OwnerID,
			Theme:         r.Theme,
			ExpiresAt:     *r.ExpiresAt,
			RemainingTime: r.RemainingTime(now),
		})
	}
	return ads, nil
}

// QueueStatus returns occupancy and an estimated wait for a new request:
// the time until the (queued+1)-th soonest active expiry, zero when a slot
// is free.
func (s *AdmissionService) QueueStatus(ctx context.Context) (*port.QueueStatus, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	queuedCount := s.queue.Len()
	activeCount := s.slots.Active()
	capacity := s.slots.Capacity()
	s.mu.Unlock()

	status := &port.QueueStatus{
		ActiveCount:    activeCount,
		MaxActiveSlots: capacity,
		QueuedCount:    queuedCount,
	}
	if activeCount < capacity || len(active) == 0 {
		return status, nil
	}

	expiries := make([]time.Time, 0, len(active))
	for _, r := range active {
		if r.ExpiresAt != nil {
			expiries = append(expiries, *r.ExpiresAt)
		}
	}
	if len(expiries) == 0 {
		// Active rows without an expiry carry no schedule to estimate from.
		return status, nil
	}
	sort.Slice(expiries, func(i, j int) bool { return expiries[i].Before(expiries[j]) })
	idx := queuedCount
	if idx >= len(expiries) {
		idx = len(expiries) - 1
	}
	if wait := expiries[idx].Sub(s.now()); wait > 0 {
		status.EstimatedWait = wait
	}
	return status, nil
}

// RecordExposure increments the exposure counter. Best effort: unknown ids
// are dropped at flush time and nothing is ever surfaced to the caller.
func (s *AdmissionService) RecordExposure(id uuid.UUID) {
	s.tracker.RecordExposure(id)
}

// RecordClick increments the click counter. Same semantics as
// RecordExposure.
func (s *AdmissionService) RecordClick(id uuid.UUID) {
	s.tracker.RecordClick(id)
}

// FlushCounters persists pending exposure/click deltas.
func (s *AdmissionService) FlushCounters(ctx context.Context) {
	s.tracker.Flush(ctx, s.store, s.logger)
}

var _ port.AdmissionUseCase = (*AdmissionService)(nil)
