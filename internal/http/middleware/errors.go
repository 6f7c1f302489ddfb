package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/recipe-roulette/internal/apperr"
	"github.com/tbourn/recipe-roulette/internal/i18n"
)

// AbortWithError classifies err, localizes its message for the caller's
// Accept-Language and aborts with the standard error envelope
// {request_id, code, message}.
//
// Rate limit errors also set Retry-After. Unclassified errors are logged with
// their cause and rendered as a generic internal error.
func AbortWithError(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal(err)
	}
	status := apperr.Status(ae)
	tag := i18n.Negotiate(c.GetHeader("Accept-Language"))

	msg := i18n.Translate(tag, ae.Message)
	if ae.Kind == apperr.KindRateLimit {
		secs := apperr.RetryAfterSeconds(ae.RetryAfter)
		c.Header("Retry-After", strconv.Itoa(secs))
		msg = RateLimitMessage(c, secs)
	} else if ae.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(apperr.RetryAfterSeconds(ae.RetryAfter)))
	}

	if status >= http.StatusInternalServerError {
		lg := LoggerFrom(c)
		lg.Error().Err(errors.Unwrap(ae)).
			Int("status", status).
			Str("code", apperr.Code(ae.Kind)).
			Str("message", ae.Message).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       apperr.Code(ae.Kind),
		"message":    msg,
	})
}

// RateLimitMessage renders the rate limit text for secs in the caller's language.
func RateLimitMessage(c *gin.Context, secs int) string {
	return i18n.Translate(i18n.Negotiate(c.GetHeader("Accept-Language")), apperr.RateLimitFormat, secs)
}
