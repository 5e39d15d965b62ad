package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"theme-ads/internal/core/domain"
)

func TestSweepSkipsOverlappingTick(t *testing.T) {
	e := newTestEngine(t, Config{MaxActiveSlots: 1})
	ctx := context.Background()
	e.ledger.setBalance("u1", 1000)

	_, err := e.svc.RequestAdvertisement(ctx, "u1", e.theme(), 1)
	require.NoError(t, err)
	e.clock.Advance(25 * time.Hour)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewExpirationSweeper(e.svc, time.Minute, logger)

	// Simulate a previous tick still in flight: the sweep must bail out
	// without touching the elapsed request.
	sweeper.running.Store(true)
	assert.Equal(t, 0, sweeper.Sweep(ctx))
	active, err := e.store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	sweeper.running.Store(false)
	assert.Equal(t, 1, sweeper.Sweep(ctx))
}

func TestSweepExpiresWholeBatch(t *testing.T) {
	e := newTestEngine(t, Config{MaxActiveSlots: 3})
	ctx := context.Background()
	for _, o := range []string{"u1", "u2", "u3"} {
		e.ledger.setBalance(o, 1000)
		_, err := e.svc.RequestAdvertisement(ctx, o, e.theme(), 1)
		require.NoError(t, err)
	}

	e.clock.Advance(25 * time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := NewExpirationSweeper(e.svc, time.Minute, logger)

	assert.Equal(t, 3, sweeper.Sweep(ctx))
	assert.Equal(t, 0, e.svc.slots.Active())

	expired, err := e.store.ListExpired(ctx, e.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)

	for _, r := range e.store.listByStatus(domain.StatusExpired) {
		assert.Equal(t, domain.StatusExpired, r.Status)
	}
	assert.Len(t, e.store.listByStatus(domain.StatusExpired), 3)
}
