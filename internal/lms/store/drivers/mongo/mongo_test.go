package mongo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/idx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testTimeout = 10 * time.Second

// TestMain starts MongoDB in a container once for the package when
// GO_TEST_INTEGRATION is set. Each test then gets its own database.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("DB_URI", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// mustNewStore connects to a fresh database and drops it when the test ends.
func mustNewStore(t *testing.T) *Store {
	t.Helper()

	base := os.Getenv("DB_URI")
	if base == "" {
		t.Skip("DB_URI not set; run with GO_TEST_INTEGRATION=1")
	}
	uri := strings.TrimSuffix(base, "/") + "/lms_test_" + strings.ToLower(idx.New().String())

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	s, err := New(ctx, uri)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.Close()
	})
	return s
}

func TestDatabaseFromURI(t *testing.T) {
	tests := map[string]string{
		"mongodb://localhost:27017":           defaultDBName,
		"mongodb://localhost:27017/":          defaultDBName,
		"mongodb://localhost:27017/academy":   "academy",
		"mongodb://u:p@host/academy?ssl=true": "academy",
	}
	for uri, want := range tests {
		require.Equal(t, want, databaseFromURI(uri), "uri %q", uri)
	}
}

func TestUsers(t *testing.T) {
	s := mustNewStore(t)
	users := s.Users()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Millisecond)
	ada := domain.User{
		ID:           idx.NewAt(base).String(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         domain.RoleUser,
		IsVerified:   true,
		CreatedAt:    base,
	}
	require.NoError(t, users.CreateUser(ctx, ada))

	t.Run("get", func(t *testing.T) {
		got, err := users.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, ada.ID, got.ID)
		require.Equal(t, ada.PasswordHash, got.PasswordHash)
		require.Equal(t, []domain.CourseRef{}, got.Courses)
		require.Equal(t, base, got.CreatedAt)

		_, err = users.GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unique email", func(t *testing.T) {
		dup := ada
		dup.ID = idx.New().String()
		require.ErrorIs(t, users.CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("updates", func(t *testing.T) {
		require.NoError(t, users.UpdateProfile(ctx, ada.ID, store.ProfileUpdate{Name: "Ada L."}))
		require.NoError(t, users.UpdateRole(ctx, ada.ID, domain.RoleAdmin))
		require.NoError(t, users.UpdatePasswordHash(ctx, ada.ID, "$2a$10$new"))

		got, err := users.GetUserByID(ctx, ada.ID)
		require.NoError(t, err)
		require.Equal(t, "Ada L.", got.Name)
		require.Equal(t, "ada@example.com", got.Email)
		require.Equal(t, domain.RoleAdmin, got.Role)
		require.Equal(t, "$2a$10$new", got.PasswordHash)

		require.ErrorIs(t, users.UpdateRole(ctx, "missing", domain.RoleAdmin), store.ErrNotFound)
	})

	t.Run("list newest first and delete", func(t *testing.T) {
		grace := domain.User{
			ID:        idx.New().String(),
			Name:      "Grace",
			Email:     "grace@example.com",
			Role:      domain.RoleUser,
			CreatedAt: base.Add(time.Minute),
		}
		require.NoError(t, users.CreateUser(ctx, grace))

		list, err := users.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, grace.ID, list[0].ID)

		require.NoError(t, users.DeleteUser(ctx, grace.ID))
		require.ErrorIs(t, users.DeleteUser(ctx, grace.ID), store.ErrNotFound)
	})
}
