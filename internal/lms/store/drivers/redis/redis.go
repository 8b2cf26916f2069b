package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces session keys when none is configured.
const DefaultPrefix = "lms:session:"

// SessionStore keeps session snapshots as plain string keys with a native
// redis TTL, so expired sessions vanish without housekeeping.
type SessionStore struct {
	rdb    *goredis.Client
	prefix string
}

var _ store.SessionStore = (*SessionStore)(nil)

// New connects using a redis URL (redis://:pass@host:6379/0) and pings the
// server so a bad address fails at startup.
func New(ctx context.Context, redisURL, prefix string) (*SessionStore, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}

	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SessionStore{rdb: rdb, prefix: prefix}, nil
}

func (s *SessionStore) key(k string) string { return s.prefix + k }

func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Set writes value under key. go-redis treats a negative expiration as
// KEEPTTL, so anything <= 0 is normalised to "no expiry".
func (s *SessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *SessionStore) Close() error { return s.rdb.Close() }

// TTL reports the remaining lifetime of key, mostly for tests and debugging.
func (s *SessionStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.rdb.TTL(ctx, s.key(key)).Result()
}
