package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Auth flow errors. ErrInvalidCredentials is deliberately generic: the
	// same error covers unknown email and wrong password so responses cannot
	// be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrAccountDisabled    = errors.New("account is disabled")

	// ErrInvalidResetToken covers not-found, already-used and expired reset
	// tokens alike; callers must not be able to tell which case occurred.
	ErrInvalidResetToken = errors.New("invalid or expired password reset token")
)
