package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/auth"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/service"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/health"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/middleware"
)

// Limiters groups the per-route rate limiters. A nil limiter disables
// limiting for its routes.
type Limiters struct {
	Login   *middleware.RateLimiter
	Refresh *middleware.RateLimiter
	API     *middleware.RateLimiter
}

// NewLimiters builds the limiters with the production budgets: 10 logins and
// 30 refreshes per 15 minutes, 100 task requests per minute, per client IP.
func NewLimiters(trustProxy bool, logger *slog.Logger) Limiters {
	return Limiters{
		Login: middleware.NewRateLimiter(middleware.RateLimitConfig{
			Name: "login", Requests: 10, Window: 15 * time.Minute,
			Code: "LOGIN_RATE_LIMIT", Message: "Too many login attempts, please try again later",
			TrustProxy: trustProxy,
		}, logger),
		Refresh: middleware.NewRateLimiter(middleware.RateLimitConfig{
			Name: "refresh", Requests: 30, Window: 15 * time.Minute,
			Code: "REFRESH_RATE_LIMIT", Message: "Too many refresh attempts, please try again later",
			TrustProxy: trustProxy,
		}, logger),
		API: middleware.NewRateLimiter(middleware.RateLimitConfig{
			Name: "api", Requests: 100, Window: time.Minute,
			Code: "API_RATE_LIMIT", Message: "Too many requests, please try again later",
			TrustProxy: trustProxy,
		}, logger),
	}
}

// Close stops every limiter's eviction loop.
func (l Limiters) Close() {
	for _, rl := range []*middleware.RateLimiter{l.Login, l.Refresh, l.API} {
		if rl != nil {
			rl.Close()
		}
	}
}

// RouterConfig holds the HTTP edge settings.
type RouterConfig struct {
	ServiceName       string
	CORS              middleware.CORSConfig
	MaxBodyBytes      int64
	PprofEnabled      bool
	PprofAllowedCIDRs []string
}

// RouterDeps holds everything the router wires together.
type RouterDeps struct {
	Auth     *service.AuthService
	Tasks    *service.TaskService
	Tokens   *auth.TokenManager
	Health   *health.Handler
	Limiters Limiters
	Logger   *slog.Logger
	Config   RouterConfig
}

// NewRouter creates a chi router with all routes of the tasks API registered.
func NewRouter(d RouterDeps) http.Handler {
	if d.Config.MaxBodyBytes <= 0 {
		d.Config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if d.Config.ServiceName == "" {
		d.Config.ServiceName = "tasks-api"
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.Tracing(d.Config.ServiceName))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.PrometheusMetrics(d.Config.ServiceName))
	r.Use(middleware.CORS(d.Config.CORS))
	r.Use(LimitBody(d.Config.MaxBodyBytes))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// Operational endpoints
	r.Get("/health", d.Health.LivenessHandler())
	r.Get("/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if d.Config.PprofEnabled {
		middleware.RegisterPprof(r, d.Config.PprofAllowedCIDRs, d.Logger)
	}

	requireAuth := middleware.Auth(authenticator(d.Tokens))

	authHandler := NewAuthHandler(d.Auth, d.Logger)
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.With(limit(d.Limiters.Login)).Post("/login", authHandler.Login)
		r.With(limit(d.Limiters.Refresh)).Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
		r.With(requireAuth).Post("/logout-all", authHandler.LogoutAll)
	})

	taskHandler := NewTaskHandler(d.Tasks, d.Logger)
	r.Route("/tasks", func(r chi.Router) {
		r.Use(limit(d.Limiters.API))
		r.Use(requireAuth)
		r.Use(middleware.ContentTypeJSON)

		r.Get("/", taskHandler.List)
		r.Post("/", taskHandler.Create)
		r.Get("/{id}", taskHandler.Get)
		r.Put("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return r
}

// authenticator bridges the access-token validator to the auth middleware.
func authenticator(tokens *auth.TokenManager) middleware.Authenticator {
	return func(header string) (*middleware.Claims, error) {
		claims, err := tokens.Authenticate(header)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID, Username: claims.Username}, nil
	}
}

func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Handler
}
