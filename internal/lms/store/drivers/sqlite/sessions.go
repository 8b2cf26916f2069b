package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// Get returns the live session value under key. Expired rows read as absent
// even before housekeeping removes them.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM sessions
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, toMillis(s.now()),
	).Scan(&value)
	if err != nil {
		return "", mapNotFound(err)
	}
	return value, nil
}

// Set upserts the session value. ttl <= 0 stores it without expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: toMillis(s.now().Add(ttl)), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	return err
}

// Delete removes the session. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key)
	return err
}

// DeleteExpiredSessions purges expired rows and reports how many went.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		toMillis(s.now()),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
