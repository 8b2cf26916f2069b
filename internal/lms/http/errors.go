package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/lms/internal/lms/service"
	"github.com/aussiebroadwan/lms/pkg/lmssdk"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// serviceErrors maps service sentinels to their wire form.
var serviceErrors = []struct {
	err error
	api *lmssdk.APIError
}{
	{service.ErrInvalidRequest, lmssdk.ErrInvalidRequest},
	{service.ErrInvalidCredentials, lmssdk.ErrInvalidCredentials},
	{service.ErrUnauthenticated, lmssdk.ErrUnauthenticated},
	{service.ErrForbidden, lmssdk.ErrForbidden},
	{service.ErrInvalidToken, lmssdk.ErrInvalidToken},
	{service.ErrTokenExpired, lmssdk.ErrTokenExpired},
	{service.ErrSessionNotFound, lmssdk.ErrSessionNotFound},
	{service.ErrCodeMismatch, lmssdk.ErrCodeMismatch},
	{service.ErrDuplicateEmail, lmssdk.ErrDuplicateEmail},
	{service.ErrUserNotFound, lmssdk.ErrNotFound},
}

// toAPIError classifies err. Anything unknown is a server error.
func toAPIError(err error) *lmssdk.APIError {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.api
		}
	}
	return lmssdk.ErrServerError
}

// writeError writes the failure envelope for err, logging unexpected ones.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr == lmssdk.ErrServerError {
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	}
	apiErr.WriteError(w)
}

// notFound answers every unmatched route.
func notFound(w http.ResponseWriter, r *http.Request) {
	lmssdk.ErrNotFound.WithMessage("Route " + r.URL.Path + " not found").WriteError(w)
}
