// Package apperr defines the error taxonomy shared by the roulette engine, the
// recipe proxy and the HTTP layer.
//
// Every failure that reaches a client is classified into a Kind. The HTTP layer
// maps kinds to status codes and stable machine-readable codes; the message of
// an *Error is always safe to show to users. Underlying causes (upstream bodies,
// driver errors) are kept in Err for logging and never rendered.
package apperr

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Kind classifies an error for clients.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindRateLimit
	KindValidation
	KindUpstream
	KindEmptyResult
	KindNotFound
	KindForbidden
	KindConflict
)

// RateLimitFormat is the user-facing rate limit message; %d is whole seconds.
const RateLimitFormat = "Rate limit exceeded. Please try again later. Please wait %d second(s)."

// MaxUpstreamMessage caps the length of normalized upstream messages.
const MaxUpstreamMessage = 200

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string

	// RetryAfter is set for KindRateLimit and for throttled conflicts.
	RetryAfter time.Duration
	// Retryable marks transient upstream failures such as timeouts.
	Retryable bool
	// Timeout marks upstream failures caused by a deadline.
	Timeout bool

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf reports the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

// RateLimited builds a rate limit error telling the caller to wait. The wait is
// rounded up to whole seconds in the message.
func RateLimited(wait time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Message:    fmt.Sprintf(RateLimitFormat, RetryAfterSeconds(wait)),
		RetryAfter: wait,
	}
}

// Validation carries a message that is surfaced verbatim.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Upstream builds a non-retryable upstream failure. msg is truncated to
// MaxUpstreamMessage runes.
func Upstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: Truncate(msg, MaxUpstreamMessage), Err: cause}
}

// Unavailable builds a retryable upstream failure.
func Unavailable(msg string, cause error) *Error {
	e := Upstream(msg, cause)
	e.Retryable = true
	return e
}

// Timeout builds a retryable upstream failure caused by a deadline.
func Timeout(msg string, cause error) *Error {
	e := Unavailable(msg, cause)
	e.Timeout = true
	return e
}

func EmptyResult(msg string) *Error {
	return &Error{Kind: KindEmptyResult, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict reports a state conflict; retryAfter may be zero.
func Conflict(msg string, retryAfter time.Duration) *Error {
	return &Error{Kind: KindConflict, Message: msg, RetryAfter: retryAfter}
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: cause}
}

// RetryAfterSeconds rounds d up to whole seconds, never below 1.
func RetryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		if ae.Timeout {
			return http.StatusGatewayTimeout
		}
		if ae.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case KindEmptyResult:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code for k.
func Code(k Kind) string {
	switch k {
	case KindAuthentication:
		return "unauthorized"
	case KindRateLimit:
		return "too_many_requests"
	case KindValidation:
		return "bad_request"
	case KindUpstream:
		return "upstream_error"
	case KindEmptyResult:
		return "empty_result"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
