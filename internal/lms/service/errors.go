package service

import "errors"

// Error kinds surfaced to callers. The message of each sentinel is the kind
// code the HTTP layer reports.
var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenExpired       = errors.New("token_expired")
	ErrSessionNotFound    = errors.New("session_not_found")
	ErrCodeMismatch       = errors.New("code_mismatch")
	ErrDuplicateEmail     = errors.New("duplicate_email")
	ErrUserNotFound       = errors.New("not_found")
)
