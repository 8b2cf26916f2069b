package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	pair, err := env.sessions.StartSession(ctx, sessionUser())
	require.NoError(t, err)

	t.Run("valid token with session", func(t *testing.T) {
		id, err := env.gate.Authenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "user-1", id.UserID)
		require.NotNil(t, id.User)
		require.Equal(t, domain.RoleUser, id.Role())
	})

	t.Run("no token", func(t *testing.T) {
		_, err := env.gate.Authenticate(ctx, "")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := env.gate.Authenticate(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		_, err := env.gate.Authenticate(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestAuthenticateOrphanedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	pair, err := env.sessions.StartSession(ctx, sessionUser())
	require.NoError(t, err)
	require.NoError(t, env.sessions.EndSession(ctx, "user-1"))

	id, err := env.gate.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", id.UserID)
	require.Nil(t, id.User)
	require.Empty(t, id.Role())
	require.ErrorIs(t, Authorize(id, domain.RoleUser, domain.RoleAdmin), ErrForbidden)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	pair, err := env.sessions.StartSession(ctx, sessionUser())
	require.NoError(t, err)

	env.clock.Advance(5*time.Minute + time.Second)
	_, err = env.gate.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	admin := domain.User{ID: "a", Role: domain.RoleAdmin}
	user := domain.User{ID: "u", Role: domain.RoleUser}

	require.NoError(t, Authorize(Identity{UserID: "a", User: &admin}, domain.RoleAdmin))
	require.ErrorIs(t, Authorize(Identity{UserID: "u", User: &user}, domain.RoleAdmin), ErrForbidden)
	require.NoError(t, Authorize(Identity{UserID: "u", User: &user}, domain.RoleAdmin, domain.RoleUser))
	require.ErrorIs(t, Authorize(Identity{UserID: "u", User: &user}), ErrForbidden)
}
