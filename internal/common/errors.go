// Package common defines shared constants and sentinel errors used across
// the client engine and the remote store server. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Remote store is unreachable or timed out. Retriable, never fatal.
	ErrorUnavailable = errors.New("remote store unavailable")

	// Validation errors (zero amounts, malformed dates, unknown fields).
	ErrorInvalidInput = errors.New("invalid input")

	// Not produced by last-write-wins paths; kept for stores that detect
	// concurrent modification (S3 conditional writes).
	ErrConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Session errors.
	ErrNoActiveSession = errors.New("no active session")
	ErrStaleSession    = errors.New("stale session")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
