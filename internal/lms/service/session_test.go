package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/stretchr/testify/require"
)

func sessionUser() domain.User {
	return domain.User{
		ID:           "user-1",
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         domain.RoleUser,
		IsVerified:   true,
		Courses:      []domain.CourseRef{},
	}
}

func TestStartSessionWritesSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	pair, err := env.sessions.StartSession(ctx, sessionUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, testBase.Add(5*time.Minute), pair.AccessExpiresAt.UTC())
	require.Equal(t, testBase.Add(72*time.Hour), pair.RefreshExpiresAt.UTC())

	snap, err := env.sessions.Snapshot(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", snap.Email)
	require.Empty(t, snap.PasswordHash, "hash must not be cached")

	raw, err := env.store.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NotContains(t, raw, "secret")
}

func TestEndSessionRevokesRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	pair, err := env.sessions.StartSession(ctx, sessionUser())
	require.NoError(t, err)

	require.NoError(t, env.sessions.EndSession(ctx, "user-1"))
	require.NoError(t, env.sessions.EndSession(ctx, "user-1"))

	_, _, err = env.sessions.RenewSession(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRenewSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.sessions.StartSession(ctx, sessionUser())
	require.NoError(t, err)

	env.clock.Advance(time.Hour)

	second, user, err := env.sessions.RenewSession(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, testBase.Add(time.Hour+5*time.Minute), second.AccessExpiresAt.UTC())

	claims, err := env.tokens.VerifyAccessToken(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)

	t.Run("previous refresh token stays usable", func(t *testing.T) {
		_, _, err := env.sessions.RenewSession(ctx, first.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		env.clock.Advance(72 * time.Hour)
		_, _, err := env.sessions.RenewSession(ctx, first.RefreshToken)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, _, err := env.sessions.RenewSession(ctx, second.AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestResyncDoesNotReviveSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	u := sessionUser()
	require.NoError(t, env.sessions.Resync(ctx, u))
	_, err := env.store.Get(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.sessions.StartSession(ctx, u)
	require.NoError(t, err)

	u.Name = "Ada Lovelace"
	require.NoError(t, env.sessions.Resync(ctx, u))

	snap, err := env.sessions.Snapshot(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", snap.Name)
}

func TestSessionManagerDefaultTTL(t *testing.T) {
	t.Parallel()

	m := &SessionManager{}
	require.Equal(t, DefaultSessionTTL, m.ttl())

	m.TTL = time.Hour
	require.Equal(t, time.Hour, m.ttl())
}
