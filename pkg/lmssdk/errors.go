package lmssdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/lms/pkg/httpx"
)

// Error kinds reported in the "error" field of a failure response.
const (
	KindInvalidRequest     = "invalid_request"
	KindInvalidCredentials = "invalid_credentials"
	KindUnauthenticated    = "unauthenticated"
	KindForbidden          = "forbidden"
	KindInvalidToken       = "invalid_token"
	KindTokenExpired       = "token_expired"
	KindSessionNotFound    = "session_not_found"
	KindCodeMismatch       = "code_mismatch"
	KindDuplicateEmail     = "duplicate_email"
	KindNotFound           = "not_found"
	KindRateLimitExceeded  = "rate_limit_exceeded"
	KindServerError        = "server_error"
)

// APIError is a failure response. The server writes it and the client
// decodes it.
type APIError struct {
	StatusCode int    `json:"-"`
	Kind       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches on Kind so a decoded error compares equal to the predefined
// value regardless of its message.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// WithMessage returns a copy of e carrying message.
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Kind: e.Kind, Message: message}
}

// WriteError writes e as the failure envelope.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Kind, e.Message)
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindInvalidRequest,
		Message:    "the request is malformed or missing required fields",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindInvalidCredentials,
		Message:    "invalid email or password",
	}

	ErrUnauthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindUnauthenticated,
		Message:    "please login to access this resource",
	}

	ErrForbidden = &APIError{
		StatusCode: http.StatusForbidden,
		Kind:       KindForbidden,
		Message:    "you are not allowed to access this resource",
	}

	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindInvalidToken,
		Message:    "invalid JWT token",
	}

	ErrTokenExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindTokenExpired,
		Message:    "JWT expired",
	}

	ErrSessionNotFound = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       KindSessionNotFound,
		Message:    "session not found, please login again",
	}

	ErrCodeMismatch = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindCodeMismatch,
		Message:    "invalid activation code",
	}

	ErrDuplicateEmail = &APIError{
		StatusCode: http.StatusConflict,
		Kind:       KindDuplicateEmail,
		Message:    "email is already taken",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Kind:       KindNotFound,
		Message:    "resource not found",
	}

	ErrRateLimitExceeded = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Kind:       KindRateLimitExceeded,
		Message:    "too many requests",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindServerError,
		Message:    "internal server error",
	}
)

// parseErrorResponse decodes a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var envelope httpx.ErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Kind:       envelope.Error,
			Message:    envelope.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Kind:       KindServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
