package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/lms/internal/lms/service"
	"github.com/aussiebroadwan/lms/pkg/httpx"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// Cookie names carrying the session tokens.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

type identityKey struct{}

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	return httpx.WithUserID(ctx, id.UserID)
}

// IdentityFromContext returns the caller attached by Authenticate.
func IdentityFromContext(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(service.Identity)
	return id, ok && id.UserID != ""
}

// Authenticate resolves the access token (cookie first, then Bearer) and
// attaches the caller's identity to the request context.
func Authenticate(gate *service.Gate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := httpx.TokenFromRequest(r, AccessTokenCookie)

			id, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = slogx.With(ctx, "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not one of roles. It must run
// after Authenticate.
func RequireRole(roles ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, r, service.ErrUnauthenticated)
				return
			}
			if err := service.Authorize(id, roles...); err != nil {
				slogx.FromContext(r.Context()).Warn("role check failed",
					"user_id", id.UserID, "role", id.Role(), "required", roles)
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
