// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header used for safe retries of
// habit creation. A valid key is stashed on the Gin context; on POST the
// ledger is consulted and a live record marks the request as a replay, which
// also exempts it from rate limiting. Serving the replayed habit is left to
// the handler.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's retry key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemKeyMaxLen = 200
)

var defaultIdemKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	k, _ := c.Value(ctxKeyIdemKey).(string)
	return k, k != ""
}

// IsReplay reports whether the ledger already holds a live record for this
// request's route and key.
func IsReplay(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyIdemReplay).(bool)
	return b
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts the key alphabet; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a live ledger record exists for
// (route, key) at now. TTL handling belongs to the implementation. A lookup
// error is logged and the request proceeds as a first attempt.
type IdempotencyLookup func(ctx context.Context, route, key string, now time.Time) (exists bool, err error)

// IdempotencyRoute returns the ledger scope of the request: method plus the
// matched route pattern, or the raw path when nothing matched. Aliased routes
// therefore keep separate scopes.
func IdempotencyRoute(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.Request.Method + " " + path
}

// IdempotencyValidator rejects malformed keys with 400
// {"code":"bad_idempotency_key"}, stashes valid ones and, for POST requests,
// flags replays found by lookup. Requests without the header pass untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemKeyMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": requestID(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil && c.Request.Method == http.MethodPost {
			route := IdempotencyRoute(c)
			exists, err := lookup(c.Request.Context(), route, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("route", route).Msg("idempotency lookup failed")
			case exists:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
				idempotentReplays.WithLabelValues(routeLabel(c)).Inc()
			}
		}

		c.Next()
	}
}
