package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/lms/internal/lms/http"
	"github.com/aussiebroadwan/lms/internal/lms/mail"
	"github.com/aussiebroadwan/lms/internal/lms/service"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via -ldflags.
	BuildVersion = "v0.1.0"
)

// Application owns every long-lived dependency of the account service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	users    store.Store
	sessions sessionBackend
	mailer   mail.Sender
	tokens   *service.TokenIssuer

	// Services
	sessionManager      *service.SessionManager
	gate                *service.Gate
	activationService   *service.ActivationService
	accountService      *service.AccountService
	housekeepingService *service.HousekeepingService // nil unless sessions live in sqlite

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "lms-account-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStores(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("lms account service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"user_store", app.cfg.UserStore,
		"session_store", app.cfg.SessionStore,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopBackground()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the
// stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down lms account service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopBackground()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("lms account service stopped")
	return nil
}

func (app *Application) stopBackground() {
	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}
}

func (app *Application) closeStores() error {
	var errs []error
	if app.sessions.close != nil {
		if err := app.sessions.close(); err != nil {
			app.logger.Error("error closing session store", "error", err)
			errs = append(errs, err)
		}
	}
	if app.users != nil {
		if err := app.users.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initStores connects the user database and the session store.
func (app *Application) initStores(ctx context.Context) error {
	users, err := openUserStore(ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}
	app.users = users
	app.logger.Info("user store ready", "driver", app.cfg.UserStore)

	sessions, err := openSessionStore(ctx, app.cfg, users, app.logger)
	if err != nil {
		_ = users.Close()
		return err
	}
	app.sessions = sessions
	app.logger.Info("session store ready", "driver", app.cfg.SessionStore)

	return nil
}

func (app *Application) initMailer() mail.Sender {
	if app.cfg.SMTP.Host == "" {
		app.logger.Warn("SMTP_HOST not set, activation emails are not delivered (bodies logged at debug level)")
		return &mail.LogSender{Logger: app.logger}
	}
	return &mail.SMTPSender{
		Host:     app.cfg.SMTP.Host,
		Port:     app.cfg.SMTP.Port,
		Username: app.cfg.SMTP.User,
		Password: app.cfg.SMTP.Password,
		From:     app.cfg.SMTP.From,
	}
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	tokens, err := service.NewTokenIssuer(service.TokenConfig{
		Issuer:           app.cfg.Issuer,
		AccessSecret:     []byte(app.cfg.AccessSecret),
		RefreshSecret:    []byte(app.cfg.RefreshSecret),
		ActivationSecret: []byte(app.cfg.ActivationSecret),
		AccessTTL:        app.cfg.AccessTTL,
		RefreshTTL:       app.cfg.RefreshTTL,
		ActivationTTL:    app.cfg.ActivationTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.tokens = tokens
	app.mailer = app.initMailer()

	app.sessionManager = &service.SessionManager{
		Tokens:   tokens,
		Sessions: app.sessions,
		TTL:      app.cfg.SessionTTL,
	}
	app.gate = &service.Gate{Tokens: tokens, Sessions: app.sessionManager}
	app.activationService = &service.ActivationService{Tokens: tokens, Store: app.users}
	app.accountService = &service.AccountService{
		Store:      app.users,
		Sessions:   app.sessionManager,
		Activation: app.activationService,
		Mailer:     app.mailer,
	}

	// Redis expires keys itself; only the sqlite table needs sweeping.
	if expiring, ok := app.sessions.SessionStore.(store.ExpiringSessionStore); ok {
		app.housekeepingService = service.NewHousekeepingService(
			expiring,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}

	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.users,
		app.sessions,
		app.cfg.CORSOrigins,
		app.logger,
	)

	router.Gate = app.gate
	router.Sessions = app.sessionManager
	router.Activation = app.activationService
	router.Accounts = app.accountService
	router.SecureCookies = app.cfg.IsProduction()
	router.SocialAuth = app.cfg.SocialAuthEnabled
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
