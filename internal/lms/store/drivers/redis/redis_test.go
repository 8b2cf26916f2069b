package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testTimeout = 10 * time.Second

// TestMain starts one redis container for the package when
// GO_TEST_INTEGRATION is set. Without it the tests skip.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := redisC.MappedPort(ctx, "6379/tcp")
	if err != nil {
		_ = redisC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("REDIS_URL", fmt.Sprintf("redis://%s:%s/0", host, port.Port()))

	code := m.Run()

	_ = redisC.Terminate(context.Background())
	os.Exit(code)
}

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; run with GO_TEST_INTEGRATION=1")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	// Unique prefix per test keeps parallel tests apart
	s, err := New(ctx, url, "test:"+idx.New().String()+":")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-url", "")
	require.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set get with ttl", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "user-1", `{"name":"ada"}`, time.Hour))

		v, err := s.Get(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, `{"name":"ada"}`, v)

		ttl, err := s.TTL(ctx, "user-1")
		require.NoError(t, err)
		require.Greater(t, ttl, 59*time.Minute)
	})

	t.Run("no expiry", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "user-2", "x", 0))
		ttl, err := s.TTL(ctx, "user-2")
		require.NoError(t, err)
		require.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("expires", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "short", "x", time.Second))
		require.Eventually(t, func() bool {
			_, err := s.Get(ctx, "short")
			return err == store.ErrNotFound
		}, 5*time.Second, 100*time.Millisecond)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "user-3", "x", time.Hour))
		require.NoError(t, s.Delete(ctx, "user-3"))
		require.NoError(t, s.Delete(ctx, "user-3"))

		_, err := s.Get(ctx, "user-3")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
