package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// Identity is the authenticated caller. User is nil when the access token is
// still valid but the session snapshot is gone (logout or admin action within
// the access token's lifetime).
type Identity struct {
	UserID string
	User   *domain.User
}

// Role returns the snapshot role, or "" for an orphaned token.
func (i Identity) Role() string {
	if i.User == nil {
		return ""
	}
	return i.User.Role
}

// Gate authenticates access tokens and resolves the caller's identity.
type Gate struct {
	Tokens   *TokenIssuer
	Sessions *SessionManager
}

// Authenticate decodes token and resolves the identity. Every decode failure
// yields ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, token string) (Identity, error) {
	log := slogx.FromContext(ctx)

	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := g.Tokens.VerifyAccessToken(token)
	if err != nil {
		log.Debug("access token rejected", slog.Any("error", err))
		return Identity{}, ErrUnauthenticated
	}

	id := Identity{UserID: claims.UserID}

	user, err := g.Sessions.Snapshot(ctx, claims.UserID)
	switch {
	case err == nil:
		id.User = &user
	case errors.Is(err, ErrSessionNotFound):
		log.Debug("access token without session", slog.String("user_id", claims.UserID))
	default:
		return Identity{}, err
	}

	return id, nil
}

// Authorize fails with ErrForbidden unless the identity holds one of roles.
func Authorize(id Identity, roles ...string) error {
	if id.User == nil || !slices.Contains(roles, id.User.Role) {
		return ErrForbidden
	}
	return nil
}
