// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the response hardening applied to every
// habit API response. The header set is computed once per middleware
// instance; per request only HSTS (HTTPS only) and the exposed-header list
// vary.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests. Turn it on
	// only when TLS reaches the process or a trusted proxy sets
	// X-Forwarded-Proto.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when <= 0.
	HSTSMaxAge time.Duration
	// NoStore marks every response uncacheable.
	NoStore bool
	// EnablePolicy adds Permissions-Policy and
	// X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
}

// exposedHeaders are response headers browser clients may read.
var exposedHeaders = []string{"X-Request-ID", "Idempotency-Replayed"}

type headerPair struct{ name, value string }

func staticHeaders(opt SecurityOptions) []headerPair {
	hs := []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		hs = append(hs,
			headerPair{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			headerPair{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	if opt.NoStore {
		hs = append(hs,
			headerPair{"Cache-Control", "no-store"},
			headerPair{"Pragma", "no-cache"},
			headerPair{"Expires", "0"},
		)
	}
	return hs
}

// SecurityHeaders returns middleware that always sets nosniff, DENY framing
// and no-referrer, plus the optional groups selected in opt. Once a request
// id is present it also appends X-Request-ID and Idempotency-Replayed to
// Access-Control-Expose-Headers, keeping any names already listed.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := staticHeaders(opt)
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range static {
			h.Set(p.name, p.value)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get("X-Request-ID") != "" {
			const key = "Access-Control-Expose-Headers"
			h.Set(key, mergeHeaderList(h.Get(key), exposedHeaders))
		}
		c.Next()
	}
}

// mergeHeaderList appends each of names to the comma-separated list cur
// unless it is already there (header names compare case-insensitively).
func mergeHeaderList(cur string, names []string) string {
	have := map[string]bool{}
	for _, tok := range strings.Split(cur, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			have[http.CanonicalHeaderKey(tok)] = true
		}
	}
	out := strings.TrimSpace(cur)
	for _, n := range names {
		if have[http.CanonicalHeaderKey(n)] {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += n
		have[http.CanonicalHeaderKey(n)] = true
	}
	return out
}

// isHTTPS reports whether the request arrived over TLS, directly or via a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
