package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"theme-ads/internal/core/domain"
	"theme-ads/internal/core/port"
)

// PointsLedger implements port.PointsLedger on PostgreSQL. Every movement
// inserts a ledger entry keyed by an idempotency key with a unique
// constraint, so a replayed debit or credit applies at most once. Balance
// mutation happens inside a Serializable transaction with the balance row
// locked FOR UPDATE.
type PointsLedger struct {
	pool *pgxpool.Pool
}

// NewPointsLedger returns a new ledger instance.
func NewPointsLedger(pool *pgxpool.Pool) *PointsLedger {
	return &PointsLedger{pool: pool}
}

// Balance returns the owner's current balance. Unknown owners have zero.
func (l *PointsLedger) Balance(ctx context.Context, ownerID string) (int64, error) {
	var balance int64
	err := l.pool.QueryRow(ctx,
		`SELECT balance FROM point_balances WHERE owner_id = $1`, ownerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit removes amount from the owner's balance, or returns
// domain.ErrInsufficientPoints without changing anything.
func (l *PointsLedger) Debit(ctx context.Context, ownerID string, amount int64, idempotencyKey string) error {
	return l.move(ctx, ownerID, -amount, idempotencyKey, "debit")
}

// Credit adds amount to the owner's balance.
func (l *PointsLedger) Credit(ctx context.Context, ownerID string, amount int64, idempotencyKey string) error {
	return l.move(ctx, ownerID, amount, idempotencyKey, "credit")
}

func (l *PointsLedger) move(ctx context.Context, ownerID string, delta int64, key, kind string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	// A key that already exists means this movement was applied before;
	// the retry is a no-op.
	ct, err := tx.Exec(ctx, `
		INSERT INTO point_entries (idempotency_key, owner_id, amount, kind, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (idempotency_key) DO NOTHING`,
		key, ownerID, delta, kind)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return nil
	}

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM point_balances WHERE owner_id = $1 FOR UPDATE`, ownerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		balance = 0
		if _, err = tx.Exec(ctx,
			`INSERT INTO point_balances (owner_id, balance) VALUES ($1, 0)`, ownerID); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if balance+delta < 0 {
		err = domain.ErrInsufficientPoints
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE point_balances SET balance = balance + $1 WHERE owner_id = $2`, delta, ownerID)
	return err
}

var _ port.PointsLedger = (*PointsLedger)(nil)
