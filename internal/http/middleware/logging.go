// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, panic recovery and access to
// the request-scoped logger:
//
//   - RequestID() ensures every request carries a correlation ID (propagated
//     via X-Request-ID and stored in the Gin context).
//   - Recovery() converts panics into the JSON 500 envelope, localized from
//     Accept-Language, and logs the stack with the correlation ID.
//   - LoggerFrom() returns the logger attached by RedactingLogger so handlers
//     and services can log with request fields (e.g.
//     lg.Info().Str("session_id", id).Msg("spin")).
//
// Access logging itself lives in RedactingLogger (redact_logger.go).
//
// Recommended order:
//  1. RequestID()
//  2. RedactingLogger(...)
//  3. Recovery()
//
// so that panics and error envelopes include the correlation ID and are
// logged with request context. The request-scoped logger is stored under the
// "logger" Gin context key.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/recipe-roulette/internal/i18n"
)

const (
	// requestIDKey is the Gin context key holding the correlation ID.
	requestIDKey = "requestID"
	// requestIDHeader propagates the correlation ID in both directions.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key holding the request-scoped logger.
	loggerKey = "logger"

	// maxRequestIDLength bounds client-supplied correlation ids.
	maxRequestIDLength = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// Behavior:
//   - A non-empty incoming X-Request-ID of at most 128 bytes is reused;
//     anything else is replaced by a fresh UUIDv4.
//   - The ID is written back on the response header and stored in the Gin
//     context under "requestID", where the error envelope reads it.
//
// Place this first so every later middleware can rely on the ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Recovery intercepts panics, logs a stack trace and returns a JSON 500.
//
// Behavior:
//   - Logs the panic value and stack through LoggerFrom, so the entry carries
//     the request fields when RedactingLogger ran first.
//   - If nothing has been written yet, emits the standard envelope
//     { "request_id": "...", "code": "internal_error", "message": "..." }
//     with the message translated for the caller's Accept-Language.
//   - If the response already started, only the status is recorded.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				tag := i18n.Negotiate(c.GetHeader("Accept-Language"))
				c.Header(requestIDHeader, asString(rid))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": asString(rid),
					"code":       "internal_error",
					"message":    i18n.Translate(tag, "internal error"),
				})
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// When no logger was attached (RedactingLogger not installed, or a bare
// router in tests) it returns a copy of the global logger without request
// fields. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString returns v when it is a string and "" otherwise.
func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
