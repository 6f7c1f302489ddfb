// Package handlers defines HTTP-layer error codes for responses written
// directly by handlers and router fallbacks. Classified application errors
// take their code from apperr.Code, which uses the same vocabulary.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)

// Messages for malformed transport input.
const (
	msgInvalidJSON  = "invalid JSON body"
	msgInvalidDish  = "dish id must be a UUID"
	msgInvalidLimit = "limit must be a positive integer"
)
