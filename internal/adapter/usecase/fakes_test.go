package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"theme-ads/internal/core/domain"
	"theme-ads/internal/core/port"
)

// fakeStore is an in-memory port.AdRequestStore. The fail fields inject a
// single transient error; onCreate lets a test interleave a competing call
// right before a write lands.
type fakeStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*domain.AdRequest

	onCreate    func(*domain.AdRequest)
	activateErr error
	casErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: make(map[uuid.UUID]*domain.AdRequest)}
}

func (s *fakeStore) failNextActivate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activateErr = err
}

func (s *fakeStore) failNextCompareAndSet(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.casErr = err
}

func (s *fakeStore) Create(_ context.Context, r *domain.AdRequest) error {
	s.mu.Lock()
	hook := s.onCreate
	s.onCreate = nil
	s.mu.Unlock()
	if hook != nil {
		hook(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*domain.AdRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.casErr != nil {
		err := s.casErr
		s.casErr = nil
		return false, err
	}
	r, ok := s.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = at
	if to == domain.StatusCancelled {
		t := at
		r.CancelledAt = &t
		r.QueuePosition = 0
	}
	return true, nil
}

func (s *fakeStore) ActivateFromQueue(_ context.Context, id uuid.UUID, activatedAt, expiresAt time.Time, charged int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activateErr != nil {
		err := s.activateErr
		s.activateErr = nil
		return false, err
	}
	r, ok := s.requests[id]
	if !ok || r.Status != domain.StatusQueued {
		return false, nil
	}
	a, e := activatedAt, expiresAt
	r.Status = domain.StatusActive
	r.QueuePosition = 0
	r.PointsCharged = charged
	r.ActivatedAt = &a
	r.ExpiresAt = &e
	r.UpdatedAt = activatedAt
	return true, nil
}

func (s *fakeStore) UpdateQueuePositions(_ context.Context, positions map[uuid.UUID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pos := range positions {
		if r, ok := s.requests[id]; ok && r.Status == domain.StatusQueued {
			r.QueuePosition = pos
		}
	}
	return nil
}

func (s *fakeStore) listByStatus(status domain.Status) []domain.AdRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AdRequest
	for _, r := range s.requests {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out
}

func (s *fakeStore) ListActive(context.Context) ([]domain.AdRequest, error) {
	out := s.listByStatus(domain.StatusActive)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
	})
	return out, nil
}

func (s *fakeStore) ListQueued(context.Context) ([]domain.AdRequest, error) {
	out := s.listByStatus(domain.StatusQueued)
	sort.Slice(out, func(i, j int) bool {
		return out[i].QueuePosition < out[j].QueuePosition
	})
	return out, nil
}

func (s *fakeStore) ListExpired(_ context.Context, now time.Time) ([]domain.AdRequest, error) {
	all := s.listByStatus(domain.StatusActive)
	var out []domain.AdRequest
	for _, r := range all {
		if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) AddCounters(_ context.Context, id uuid.UUID, exposures, clicks int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		r.ExposureCount += exposures
		r.ClickCount += clicks
	}
	return nil
}

var _ port.AdRequestStore = (*fakeStore)(nil)

// fakeLedger is an in-memory port.PointsLedger with idempotency-keyed
// movements, mirroring the Postgres implementation.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	applied  map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int64), applied: make(map[string]bool)}
}

func (l *fakeLedger) setBalance(ownerID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[ownerID] = amount
}

func (l *fakeLedger) balance(ownerID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[ownerID]
}

func (l *fakeLedger) Balance(_ context.Context, ownerID string) (int64, error) {
	return l.balance(ownerID), nil
}

func (l *fakeLedger) Debit(_ context.Context, ownerID string, amount int64, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.applied[key] {
		return nil
	}
	if l.balances[ownerID] < amount {
		return domain.ErrInsufficientPoints
	}
	l.balances[ownerID] -= amount
	l.applied[key] = true
	return nil
}

func (l *fakeLedger) Credit(_ context.Context, ownerID string, amount int64, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.applied[key] {
		return nil
	}
	l.balances[ownerID] += amount
	l.applied[key] = true
	return nil
}

var _ port.PointsLedger = (*fakeLedger)(nil)

// fakeNotifier records which notices fired.
type fakeNotifier struct {
	mu              sync.Mutex
	activated       []uuid.UUID
	expired         []uuid.UUID
	promotionFailed []uuid.UUID
}

func (n *fakeNotifier) AdActivated(_ context.Context, r *domain.AdRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activated = append(n.activated, r.ID)
}

func (n *fakeNotifier) AdExpired(_ context.Context, r *domain.AdRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, r.ID)
}

func (n *fakeNotifier) PromotionFailed(_ context.Context, r *domain.AdRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.promotionFailed = append(n.promotionFailed, r.ID)
}

var _ port.Notifier = (*fakeNotifier)(nil)

// fakeClock lets tests move time deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
