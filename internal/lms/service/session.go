package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

// SessionManager keeps the user snapshot in the session store in step with
// the tokens handed out. A refresh token is only honoured while the snapshot
// for its user exists, so deleting the snapshot revokes every refresh token
// issued for that user.
//
// Renewing does not invalidate the previous refresh token, and two concurrent
// renewals for the same user both succeed. Each produces a valid pair and the
// last snapshot write wins.
type SessionManager struct {
	Tokens   *TokenIssuer
	Sessions store.SessionStore

	// TTL of the snapshot. Zero means DefaultSessionTTL.
	TTL time.Duration
}

func (m *SessionManager) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultSessionTTL
	}
	return m.TTL
}

// StartSession issues a token pair for user and writes the snapshot.
func (m *SessionManager) StartSession(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	pair, err := m.Tokens.IssuePair(user.ID)
	if err != nil {
		log.Error("failed to issue token pair", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.TokenPair{}, err
	}

	if err := m.writeSnapshot(ctx, user); err != nil {
		log.Error("failed to write session snapshot", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.TokenPair{}, err
	}

	log.Info("session started", slog.String("user_id", user.ID))
	return pair, nil
}

// EndSession deletes the snapshot. Ending a session that does not exist is
// not an error.
func (m *SessionManager) EndSession(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := m.Sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	slogx.FromContext(ctx).Info("session ended", slog.String("user_id", userID))
	return nil
}

// RenewSession trades a refresh token for a fresh pair and resets the
// snapshot TTL.
func (m *SessionManager) RenewSession(ctx context.Context, refreshToken string) (domain.TokenPair, domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Verify the refresh token itself.
	claims, err := m.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		log.Info("refresh token rejected", slog.Any("error", err))
		return domain.TokenPair{}, domain.User{}, err
	}

	// 2. The snapshot must still exist.
	user, err := m.Snapshot(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			log.Info("refresh for revoked session", slog.String("user_id", claims.UserID))
		}
		return domain.TokenPair{}, domain.User{}, err
	}

	// 3. New pair bound to the same id.
	pair, err := m.Tokens.IssuePair(claims.UserID)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}

	// 4. Sliding expiration.
	if err := m.writeSnapshot(ctx, user); err != nil {
		log.Error("failed to rewrite session snapshot", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.TokenPair{}, domain.User{}, err
	}

	return pair, user, nil
}

// Snapshot reads the stored user for userID.
func (m *SessionManager) Snapshot(ctx context.Context, userID string) (domain.User, error) {
	raw, err := m.Sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrSessionNotFound
		}
		return domain.User{}, fmt.Errorf("read session: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return domain.User{}, fmt.Errorf("decode session: %w", err)
	}
	return user, nil
}

// Resync rewrites the snapshot after the stored user changed. Users without
// a live session are left alone so a profile or role change never revives a
// revoked session.
func (m *SessionManager) Resync(ctx context.Context, user domain.User) error {
	if _, err := m.Sessions.Get(ctx, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("read session: %w", err)
	}
	return m.writeSnapshot(ctx, user)
}

func (m *SessionManager) writeSnapshot(ctx context.Context, user domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.Sessions.Set(ctx, user.ID, string(raw), m.ttl()); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
