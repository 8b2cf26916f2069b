package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/mail"
	"github.com/aussiebroadwan/lms/pkg/lmssdk"
	"github.com/stretchr/testify/require"
)

func TestApplicationSQLiteOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := validConfig()
	cfg.DatabaseFile = ":memory:"
	cfg.SessionStore = SessionStoreSQLite
	cfg.LogLevel = "error"
	cfg.ShutdownGracePeriod = time.Second

	application, err := New(ctx, cfg)
	require.NoError(t, err)

	require.NotNil(t, application.housekeepingService)
	require.IsType(t, &mail.LogSender{}, application.mailer)

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	client, err := lmssdk.NewClient(srv.URL)
	require.NoError(t, err)

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	reg, err := client.Register(ctx, lmssdk.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.ActivationToken)

	_, err = client.Login(ctx, "ada@example.com", "hunter22")
	require.ErrorIs(t, err, lmssdk.ErrInvalidCredentials)

	require.NoError(t, application.Shutdown())
}
