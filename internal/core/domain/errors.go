package domain

import "errors"

// Failures surfaced by the passport core. Infrastructure causes are wrapped
// around these so callers can still match with errors.Is.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("user name or email already registered")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimitExceeded  = errors.New("verification code rate limit exceeded")
	ErrGenerationFailure  = errors.New("verification code generation failed")
	ErrDeliveryFailure    = errors.New("verification code delivery failed")
	ErrStorageFailure     = errors.New("storage failure")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrInvalidInput       = errors.New("invalid input")
)

// Store-level misses. These never reach the HTTP layer.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCodeNotFound    = errors.New("verification code not found")
)
