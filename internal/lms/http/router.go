package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/service"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	"github.com/aussiebroadwan/lms/pkg/httpx"
	"github.com/aussiebroadwan/lms/pkg/slogx"

	_ "github.com/aussiebroadwan/lms/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits selects the limiter profile per route class.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultRateLimits returns the httpx profiles (environment overrides
// applied).
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
		Public:   httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	userStore    store.Store
	sessionStore store.SessionStore

	Gate          *service.Gate
	Sessions      *service.SessionManager
	Activation    *service.ActivationService
	Accounts      *service.AccountService
	SecureCookies bool
	Limits        RateLimits

	// SocialAuth exposes POST /api/v1/social-auth. The route trusts the
	// email the client reports, so it stays off unless enabled.
	SocialAuth bool
}

func NewRouter(
	buildVersion string,
	users store.Store,
	sessions store.SessionStore,
	corsOrigins []string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		userStore:    users,
		sessionStore: sessions,
		Limits:       DefaultRateLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(corsOrigins),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
	r.Mux.HandleFunc("/", notFound)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			LMS Account Service API
//	@version		0.1.0
//	@description	Registration with email activation, cookie-based sessions and user management for the LMS.
//	@description
//	@description				Access tokens live for minutes and refresh tokens for days; a refresh only succeeds while the server-side session exists.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/lms
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						access_token
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authHandler() *AuthHandler {
	return &AuthHandler{
		Accounts:      r.Accounts,
		Activation:    r.Activation,
		Sessions:      r.Sessions,
		SecureCookies: r.SecureCookies,
	}
}

func (r *Router) registerAuth() {
	h := r.authHandler()

	// Registration and activation - strict rate limit by IP
	r.Mux.Handle("POST /api/v1/registration",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)
	r.Mux.Handle("POST /api/v1/activate-user",
		httpx.Chain(http.HandlerFunc(h.HandleActivate),
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)

	// Login - strict rate limit by IP + email to slow down credential stuffing
	r.Mux.Handle("POST /api/v1/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(r.Limits.Strict, "email"),
		),
	)
	if r.SocialAuth {
		r.Mux.Handle("POST /api/v1/social-auth",
			httpx.Chain(http.HandlerFunc(h.HandleSocialAuth),
				httpx.RateLimitByIP(r.Limits.Strict),
			),
		)
	}

	// Refresh - moderate rate limit by IP (browsers refresh every few minutes)
	r.Mux.Handle("GET /api/v1/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.Limits.Moderate),
		),
	)

	r.Mux.Handle("GET /api/v1/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			Authenticate(r.Gate),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Accounts: r.Accounts}

	// Authenticated reads - lenient rate limit by user
	r.Mux.Handle("GET /api/v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			Authenticate(r.Gate),
			httpx.RateLimitByUser(r.Limits.Lenient),
		),
	)

	// Authenticated writes - moderate rate limit by user
	r.Mux.Handle("PUT /api/v1/update-user-info",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateInfo),
			Authenticate(r.Gate),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)
	r.Mux.Handle("PUT /api/v1/update-password",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePassword),
			Authenticate(r.Gate),
			httpx.RateLimitByUser(r.Limits.Strict),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &UsersHandler{Accounts: r.Accounts}

	admin := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			Authenticate(r.Gate),
			RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(r.Limits.Moderate),
		)
	}

	r.Mux.Handle("GET /api/v1/get-users", admin(h.HandleList))
	r.Mux.Handle("PUT /api/v1/update-user", admin(h.HandleUpdateRole))
	r.Mux.Handle("DELETE /api/v1/delete-user/{id}", admin(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, map[string]Pinger{
			"database": r.userStore,
			"sessions": r.sessionStore,
		}),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
}
