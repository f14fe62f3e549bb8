// Package common defines shared constants and sentinel errors used across
// client and server layers of sevr. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors, rejected before the store is touched.
	ErrValidation = errors.New("validation error")

	// One-time code errors.
	ErrCodeNotFound    = errors.New("invalid or expired code")
	ErrCodeMismatch    = errors.New("invalid code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")

	// Auth errors (invalid, expired or malformed access token).
	ErrInvalidToken = errors.New("invalid token")

	// Refresh token lookup failed: unknown, revoked or expired.
	ErrRefreshTokenInvalid = errors.New("invalid or expired refresh token")

	// Vault errors.
	ErrAlreadySetUp = errors.New("encryption already set up")
)
