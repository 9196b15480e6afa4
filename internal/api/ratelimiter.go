package api

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// Health checks are never throttled.
const healthPath = "/api/health"

type rateLimiter interface {
	Allow() bool
}

// tokenBucket throttles config requests, which re-read the INI file on every call.
type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// retryAfter is the whole number of seconds until the next token is due.
func (b *tokenBucket) retryAfter() int {
	limit := float64(b.limiter.Limit())
	if limit <= 0 || limit >= 1 {
		return 1
	}
	return int(1/limit + 0.5)
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath || limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		retry := 1
		if bucket, ok := limiter.(*tokenBucket); ok {
			retry = bucket.retryAfter()
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "configuration rate limit exceeded, please retry shortly")
	})
}
