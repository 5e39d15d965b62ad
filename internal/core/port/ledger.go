package port

import (
	"context"
)

// PointsLedger moves points on user balances. It is an external
// collaborator; this engine never stores balances itself.
//
// Debit and Credit are keyed by an idempotency key derived from the request
// id and the triggering event, so a retried call applies the movement at
// most once. Debit returns domain.ErrInsufficientPoints when the balance
// cannot cover the amount.
type PointsLedger interface {
	// Balance returns the owner's current point balance. Read-only, used
	// for the pre-admission check.
	Balance(ctx context.Context, ownerID string) (int64, error)
	// Debit removes amount from the owner's balance.
	Debit(ctx context.Context, ownerID string, amount int64, idempotencyKey string) error
	// Credit adds amount to the owner's balance.
	Credit(ctx context.Context, ownerID string, amount int64, idempotencyKey string) error
}
