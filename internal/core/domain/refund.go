package domain

import "time"

// ProrateRefund computes the refund for an active request cancelled at now.
// Only fully remaining days are refunded (floor, not ceiling, so partial
// days are never over-refunded). The result is clamped to
// [0, RequestedDays] days and never exceeds PointsCharged.
func ProrateRefund(r *AdRequest, now time.Time) int64 {
	if r.ExpiresAt == nil {
		return 0
	}
	remaining := r.ExpiresAt.Sub(now)
	days := int64(remaining / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	if days > int64(r.RequestedDays) {
		days = int64(r.RequestedDays)
	}
	refund := days * r.DailyCost
	if refund > r.PointsCharged {
		refund = r.PointsCharged
	}
	return refund
}
