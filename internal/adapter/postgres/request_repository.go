package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"theme-ads/internal/core/domain"
	"theme-ads/internal/core/port"
)

// RequestRepository implements port.AdRequestStore using pgxpool for
// PostgreSQL.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository returns a new repository instance.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `
	id, owner_id, theme_id, theme_name, theme_category, requested_days,
	daily_cost, status, queue_position, points_charged, activated_at,
	expires_at, cancelled_at, exposure_count, click_count, created_at,
	updated_at`

func scanRequest(row pgx.CollectableRow) (domain.AdRequest, error) {
	var r domain.AdRequest
	err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Theme.ID,
		&r.Theme.Name,
		&r.Theme.Category,
		&r.RequestedDays,
		&r.DailyCost,
		&r.Status,
		&r.QueuePosition,
		&r.PointsCharged,
		&r.ActivatedAt,
		&r.ExpiresAt,
		&r.CancelledAt,
		&r.ExposureCount,
		&r.ClickCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

// Create persists a new request record.
func (r *RequestRepository) Create(ctx context.Context, req *domain.AdRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ad_requests (
			id, owner_id, theme_id, theme_name, theme_category,
			requested_days, daily_cost, status, queue_position,
			points_charged, activated_at, expires_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		req.ID, req.OwnerID, req.Theme.ID, req.Theme.Name, req.Theme.Category,
		req.RequestedDays, req.DailyCost, req.Status, req.QueuePosition,
		req.PointsCharged, req.ActivatedAt, req.ExpiresAt, req.CreatedAt, req.UpdatedAt)
	return err
}

// Get returns a request by id, or domain.ErrNotFound.
func (r *RequestRepository) Get(ctx context.Context, id uuid.UUID) (*domain.AdRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM ad_requests WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	req, err := pgx.CollectOneRow(rows, scanRequest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// CompareAndSetStatus atomically moves a request between statuses. When
// the target status is cancelled the cancellation timestamp is recorded
// and the queue position cleared.
func (r *RequestRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (bool, error) {
	query := `UPDATE ad_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`
	if to == domain.StatusCancelled {
		query = `UPDATE ad_requests
			SET status = $1, cancelled_at = $2, queue_position = 0, updated_at = $2
			WHERE id = $3 AND status = $4`
	}
	ct, err := r.pool.Exec(ctx, query, to, at, id, from)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// ActivateFromQueue moves a queued request to active, recording the
// activation window and charge. Returns false if the request is no longer
// queued.
func (r *RequestRepository) ActivateFromQueue(ctx context.Context, id uuid.UUID, activatedAt, expiresAt time.Time, charged int64) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE ad_requests
		SET status = $1, queue_position = 0, points_charged = $2,
			activated_at = $3, expires_at = $4, updated_at = $3
		WHERE id = $5 AND status = $6`,
		domain.StatusActive, charged, activatedAt, expiresAt, id, domain.StatusQueued)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// UpdateQueuePositions rewrites the stored position of each listed request
// in a single batch.
func (r *RequestRepository) UpdateQueuePositions(ctx context.Context, positions map[uuid.UUID]int) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for id, pos := range positions {
		batch.Queue(`UPDATE ad_requests SET queue_position = $1, updated_at = now() WHERE id = $2 AND status = $3`,
			pos, id, domain.StatusQueued)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListActive returns all active requests ordered by expiry.
func (r *RequestRepository) ListActive(ctx context.Context) ([]domain.AdRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM ad_requests WHERE status = $1 ORDER BY expires_at`,
		domain.StatusActive)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRequest)
}

// ListQueued returns all queued requests ordered by position.
func (r *RequestRepository) ListQueued(ctx context.Context) ([]domain.AdRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM ad_requests WHERE status = $1 ORDER BY queue_position`,
		domain.StatusQueued)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRequest)
}

// ListExpired returns active requests whose expiry is at or before now.
func (r *RequestRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.AdRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM ad_requests WHERE status = $1 AND expires_at <= $2 ORDER BY expires_at`,
		domain.StatusActive, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRequest)
}

// AddCounters adds exposure/click deltas. Unknown ids affect zero rows and
// are not an error.
func (r *RequestRepository) AddCounters(ctx context.Context, id uuid.UUID, exposures, clicks int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE ad_requests
		SET exposure_count = exposure_count + $1, click_count = click_count + $2
		WHERE id = $3`,
		exposures, clicks, id)
	return err
}

var _ port.AdRequestStore = (*RequestRepository)(nil)
