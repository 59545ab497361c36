package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/auth"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/config"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/event"
	handler "github.com/cjuarezoax-byte/hello-api-mas/internal/handler/http"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/repository"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/repository/memory"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/repository/postgres"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/service"
	"github.com/cjuarezoax-byte/hello-api-mas/migrations"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/database"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/health"
	pkgkafka "github.com/cjuarezoax-byte/hello-api-mas/pkg/kafka"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/middleware"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/tracing"
)

// ServiceName identifies the process in logs, traces, metrics and events.
const ServiceName = "tasks-api"

// App wires together all dependencies and runs the tasks API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	limiters       handler.Limiters
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// stores holds the repositories selected by STORE_DRIVER.
type stores struct {
	users repository.UserRepository
	tasks repository.TaskRepository
	pool  *pgxpool.Pool
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracingCfg := tracing.DefaultConfig(ServiceName)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.pool = st.pool

	// Kafka is optional; without it domain events are dropped.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Token lifecycle.
	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	tokens := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  cfg.Secrets.AccessSecret,
		RefreshSecret: cfg.Secrets.RefreshSecret,
		AccessTTL:     cfg.JWTAccessExpiry,
		RefreshTTL:    cfg.JWTRefreshExpiry,
		Issuer:        cfg.JWTIssuer,
	}, time.Now)
	sessions := auth.NewSessions(tokens, auth.NewRevocationRegistry())

	authService := service.NewAuthService(st.users, hasher, sessions, eventProducer, logger)
	taskService := service.NewTaskService(st.tasks, eventProducer, logger)

	if cfg.SeedsDemoUser() {
		if _, err := authService.EnsureUser(ctx, service.Credentials{
			Username: cfg.DemoUsername,
			Password: cfg.DemoPassword,
		}); err != nil {
			a.closeResources()
			return nil, fmt.Errorf("seed demo user: %w", err)
		}
		logger.Info("demo user ready", slog.String("username", cfg.DemoUsername))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	if a.pool != nil {
		pool := a.pool
		healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	if a.producer != nil {
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	if cfg.RateLimitEnabled {
		a.limiters = handler.NewLimiters(cfg.TrustProxy, logger)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterDeps{
		Auth:     authService,
		Tasks:    taskService,
		Tokens:   tokens,
		Health:   healthHandler,
		Limiters: a.limiters,
		Logger:   logger,
		Config: handler.RouterConfig{
			ServiceName:       ServiceName,
			CORS:              cors,
			MaxBodyBytes:      handler.DefaultMaxBodyBytes,
			PprofEnabled:      cfg.PprofEnabled,
			PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		},
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStores builds the repositories for the configured driver. For
// postgres it connects, registers pool metrics and applies migrations.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{users: memory.NewUserStore(), tasks: memory.NewTaskStore()}, nil

	case config.StorePostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, ServiceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if cfg.DBMigrate {
			if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations completed")
		}

		if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
			database.SetSlowQueryLogging(threshold, logger)
		}

		return &stores{
			users: postgres.NewUserRepository(pool),
			tasks: postgres.NewTaskRepository(pool),
			pool:  pool,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Rate limiter sweepers
// 3. Tracer, Kafka producer and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything except the HTTP server. Spans are
// flushed first so that the spans of drained requests are exported.
func (a *App) closeResources() error {
	var errs []error

	a.limiters.Close()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
