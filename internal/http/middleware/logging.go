// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the correlation and logging chain, meant to be installed in
// this order:
//
//	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
//
// RequestID assigns every request an id (X-Request-ID). Logger attaches a
// request-scoped zerolog.Logger carrying that id and writes one access line
// per request. Recovery turns panics into the JSON 500 envelope. Handlers get
// the scoped logger with LoggerFrom.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxQueryLogLength caps the logged query string, in bytes.
	maxQueryLogLength = 2048
)

// Client ids are echoed into headers and logs, so only short token-like
// values are trusted.
var requestIDRE = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// RequestID reuses a well-formed incoming X-Request-ID or generates a UUIDv4,
// stores it in the Gin context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !requestIDRE.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// requestID returns the id stored by RequestID, or "".
func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one structured access log per request. The line carries the
// matched route and the raw path, the scrubbed query, client details, status,
// latency and byte counts. Level: error on 5xx or recorded gin errors, warn
// on 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		scoped := log.With().Str("request_id", requestID(c)).Logger()
		c.Set(loggerKey, &scoped)

		c.Next()

		status := c.Writer.Status()
		ev := accessEvent(&scoped, status, len(c.Errors) > 0)
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("route", routeLabel(c)).
			Str("path", c.Request.URL.Path).
			Str("query", truncate(scrubQuery(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Msg("request")
	}
}

func accessEvent(l *zerolog.Logger, status int, hasErrors bool) *zerolog.Event {
	switch {
	case hasErrors || status >= http.StatusInternalServerError:
		return l.Error()
	case status >= http.StatusBadRequest:
		return l.Warn()
	default:
		return l.Info()
	}
}

// Recovery logs a recovered panic with its stack and, if nothing has been
// written yet, answers with
//
//	{"request_id": "...", "code": "internal_error", "message": "internal server error"}
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := requestID(c)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger attached by Logger, or the global logger when
// there is none. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	return &log.Logger
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence
// and marks the cut with an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
