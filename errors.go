package asr

import (
	"github.com/pkg/errors"
)

// Error is the JSON error payload returned by all API endpoints.
type Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Error codes of the API error taxonomy.
const (
	ErrorCodeValidationFailure      = "validation_failure"
	ErrorCodeAuthorizationFailure   = "authorization_failure"
	ErrorCodeRateLimitExceeded      = "rate_limit_exceeded"
	ErrorCodeConflict               = "conflict"
	ErrorCodeNotFound               = "not_found"
	ErrorCodeSignatureInvalid       = "signature_invalid"
	ErrorCodeExpired                = "expired"
	ErrorCodeRevoked                = "revoked"
	ErrorCodePersistenceUnavailable = "persistence_unavailable"
	ErrorCodeServerError            = "server_error"
)

// ErrorValidationFailure returns an Error for malformed input.
func ErrorValidationFailure(description string) Error {
	return Error{Error: ErrorCodeValidationFailure, ErrorDescription: description}
}

// ErrorAuthorizationFailure returns an Error for callers lacking an operation.
func ErrorAuthorizationFailure(description string) Error {
	return Error{Error: ErrorCodeAuthorizationFailure, ErrorDescription: description}
}

// ErrorRateLimitExceeded returns an Error for exhausted issuance ceilings.
func ErrorRateLimitExceeded(description string) Error {
	return Error{Error: ErrorCodeRateLimitExceeded, ErrorDescription: description}
}

// ErrorConflict returns an Error for duplicate-role or terminal-state conflicts.
func ErrorConflict(description string) Error {
	return Error{Error: ErrorCodeConflict, ErrorDescription: description}
}

// ErrorNotFound returns an Error for missing records.
func ErrorNotFound(description string) Error {
	return Error{Error: ErrorCodeNotFound, ErrorDescription: description}
}

// ErrorPersistenceUnavailable returns an Error for retryable storage failures.
// Retrying is the caller's responsibility; the registry never retries locally.
func ErrorPersistenceUnavailable(description string) Error {
	return Error{Error: ErrorCodePersistenceUnavailable, ErrorDescription: description}
}

// ErrorServerError returns an Error for unexpected internal failures.
func ErrorServerError(description string) Error {
	return Error{Error: ErrorCodeServerError, ErrorDescription: description}
}

// Sentinel errors surfaced by the domain services and mapped to API errors
// by the endpoint handlers.
var (
	// ErrUnauthorized means the calling system lacks the requested operation.
	ErrUnauthorized = errors.New("caller is not authorized for this operation")
	// ErrRateLimited means the calling system exhausted its issuance ceiling.
	ErrRateLimited = errors.New("issuance rate limit exceeded")
)
