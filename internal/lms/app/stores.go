package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/internal/lms/store/drivers/mongo"
	"github.com/aussiebroadwan/lms/internal/lms/store/drivers/redis"
	"github.com/aussiebroadwan/lms/internal/lms/store/drivers/sqlite"
)

// connectTimeout bounds a single connection attempt.
const connectTimeout = 10 * time.Second

// connectWithRetry calls connect until it succeeds or attempts run out,
// sleeping delay between tries.
func connectWithRetry[T any](
	ctx context.Context,
	logger *slog.Logger,
	name string,
	attempts int,
	delay time.Duration,
	connect func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		v, err := connect(attemptCtx)
		cancel()
		if err == nil {
			logger.Info("connected", slog.String("component", name), slog.Int("attempt", attempt))
			return v, nil
		}
		lastErr = err

		logger.Warn("connection failed",
			slog.String("component", name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Any("error", err),
		)

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("%s: giving up after %d attempts: %w", name, attempts, lastErr)
}

// sqliteDSN turns DATABASE_FILE into a modernc DSN with WAL enabled.
func sqliteDSN(file string) string {
	if file == ":memory:" || strings.HasPrefix(file, "file:") {
		return file
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", file)
}

func openSQLite(file string) (*sqlite.Store, error) {
	db, err := sqlite.NewStore(sqliteDSN(file))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// openUserStore connects the configured user database and brings its
// schema up to date.
func openUserStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.UserStore {
	case UserStoreSQLite:
		return openSQLite(cfg.DatabaseFile)

	case UserStoreMongo:
		db, err := connectWithRetry(ctx, logger, "mongo", cfg.DBConnectAttempts, cfg.DBConnectDelay,
			func(ctx context.Context) (*mongo.Store, error) {
				return mongo.New(ctx, cfg.DBURI)
			},
		)
		if err != nil {
			return nil, err
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
	}
}

// sessionBackend is a session store plus the handle that owns it.
type sessionBackend struct {
	store.SessionStore
	close func() error
}

// openSessionStore connects the configured session store. The sqlite
// driver reuses the user database when that is sqlite too.
func openSessionStore(ctx context.Context, cfg Config, users store.Store, logger *slog.Logger) (sessionBackend, error) {
	switch cfg.SessionStore {
	case SessionStoreRedis:
		rdb, err := connectWithRetry(ctx, logger, "redis", cfg.DBConnectAttempts, cfg.DBConnectDelay,
			func(ctx context.Context) (*redis.SessionStore, error) {
				return redis.New(ctx, cfg.RedisURL, cfg.SessionKeyPrefix)
			},
		)
		if err != nil {
			return sessionBackend{}, err
		}
		return sessionBackend{SessionStore: rdb, close: rdb.Close}, nil

	case SessionStoreSQLite:
		if db, ok := users.(*sqlite.Store); ok {
			return sessionBackend{SessionStore: db, close: func() error { return nil }}, nil
		}
		db, err := openSQLite(cfg.DatabaseFile)
		if err != nil {
			return sessionBackend{}, err
		}
		return sessionBackend{SessionStore: db, close: db.Close}, nil

	default:
		return sessionBackend{}, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
