// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-client token-bucket limiter. Buckets come from
// golang.org/x/time/rate, are created on first use and are swept once they
// have been idle for bucketIdleTTL. Requests that IdempotencyValidator marked
// as replays skip the limiter entirely. The limiter is process-local.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL = 10 * time.Minute
	// sweepAfter is the number of lookups between idle-bucket sweeps.
	sweepAfter = 5000
)

// keyFunc maps a request to its bucket key.
type keyFunc func(*gin.Context) string

// KeyByIP buckets requests by client IP. The API has no user identity, so the
// address is the only stable key.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter holds one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
	idleTTL time.Duration
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst. A burst <= 0 is treated as 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(burst, 1),
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: bucketIdleTTL,
	}
}

// limiterFor returns the bucket for key, creating it if needed. Every
// sweepAfter lookups idle buckets are dropped first, so a stale bucket is
// replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepAfter {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay, which the limiter lets through without spending a token.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// retryAfter is the whole number of seconds until lim can admit one request,
// at least 1.
func retryAfter(lim *rate.Limiter, now time.Time) int {
	if lim.Limit() <= 0 {
		return 1
	}
	r := lim.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return 1
	}
	return max(1, int(math.Ceil(r.DelayFrom(now).Seconds())))
}

// Handler enforces the limit. Rejected requests get 429 with a Retry-After
// header and the usual error envelope:
//
//	{"request_id": "...", "code": "too_many_requests", "message": "rate limit exceeded"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := time.Now()
		lim := rl.limiterFor(rl.keyFn(c), now)
		if lim.AllowN(now, 1) {
			c.Next()
			return
		}

		httpRateLimited.WithLabelValues(routeLabel(c)).Inc()
		c.Header("Retry-After", strconv.Itoa(retryAfter(lim, now)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
