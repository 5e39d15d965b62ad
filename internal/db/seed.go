package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo data: point balances for a handful of users and a few
// promoted-theme requests in different lifecycle states. Intended for
// local development only.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	for i := 1; i <= 10; i++ {
		owner := fmt.Sprintf("user-%d", i)
		balance := int64(2000)
		_, err := db.Exec(ctx, `INSERT INTO point_balances (owner_id, balance)
VALUES ($1, $2) ON CONFLICT (owner_id) DO NOTHING`, owner, balance)
		if err != nil {
			return err
		}
	}

	themes := []struct {
		id, name, category string
	}{
		{"theme-dark", "Midnight Dark", "dark"},
		{"theme-retro", "Retro Wave", "colorful"},
		{"theme-minimal", "Plain Minimal", "light"},
	}
	now := time.Now().UTC()
	for i, t := range themes {
		owner := fmt.Sprintf("user-%d", i+1)
		days := 3 + i
		charged := int64(days) * 100
		activated := now.AddDate(0, 0, -1)
		expires := activated.AddDate(0, 0, days)
		_, err := db.Exec(ctx, `INSERT INTO ad_requests
    (id, owner_id, theme_id, theme_name, theme_category, requested_days,
     daily_cost, status, queue_position, points_charged, activated_at,
     expires_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,100,'active',0,$7,$8,$9,now(),now())
ON CONFLICT DO NOTHING`,
			uuid.New(), owner, t.id, t.name, t.category, days, charged, activated, expires)
		if err != nil {
			return err
		}
	}
	return nil
}
