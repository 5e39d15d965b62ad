package httpadapter

import (
	"net/http"

	"golang.org/x/time/rate"
)

const (
	defaultTrackRate  = 50 // events per second across all callers
	defaultTrackBurst = 100
)

// trackLimiter returns a middleware throttling the exposure/click
// endpoints with a shared token bucket. The bot batches its tracking
// calls, so over-limit requests are shed with 429 rather than queued.
func trackLimiter(perSecond rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
