package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/cjuarezoax-byte/hello-api-mas/pkg/config"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/database"
)

// Development fallbacks for the signing secrets. Never accepted in strict mode.
const (
	DevAccessSecret  = "access-secret-dev-change-me"
	DevRefreshSecret = "refresh-secret-dev-change-me"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Secrets holds the two token signing secrets.
type Secrets struct {
	AccessSecret  string `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string `env:"JWT_REFRESH_SECRET"`

	// Strict is set by STRICT_SECRETS, and always in production. In strict
	// mode a missing secret is a startup error instead of a dev fallback.
	Strict bool `env:"STRICT_SECRETS" envDefault:"false"`
}

// Config holds all configuration for the tasks API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Tokens
	Secrets          Secrets
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	JWTIssuer        string        `env:"JWT_ISSUER" envDefault:"hello-api-mas"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`

	// Demo account seeded outside production. An empty DEMO_USERNAME falls
	// back to the default, so DEMO_USER_ENABLED is the opt-out.
	DemoUserEnabled bool   `env:"DEMO_USER_ENABLED" envDefault:"true"`
	DemoUsername    string `env:"DEMO_USERNAME" envDefault:"carlos"`
	DemoPassword    string `env:"DEMO_PASSWORD" envDefault:"secret123"`

	// Storage
	StoreDriver          string `env:"STORE_DRIVER" envDefault:"postgres"`
	PostgresHost         string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort         int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser         string `env:"POSTGRES_USER" envDefault:"tasks"`
	PostgresPass         string `env:"POSTGRES_PASSWORD" envDefault:"tasks_secret"`
	PostgresDB           string `env:"POSTGRES_DB" envDefault:"tasks"`
	PostgresSSL          string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns           int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns           int32  `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMigrate            bool   `env:"DB_MIGRATE" envDefault:"true"`
	SlowQueryThresholdMS int    `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// HTTP edge
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitEnabled   bool     `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	TrustProxy         bool     `env:"TRUST_PROXY" envDefault:"false"`
	PprofEnabled       bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return load()
}

// LoadFrom reads configuration from the given environment map.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(pkgconfig.WithEnvironment(environ))
}

func load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load tasks config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finalize() error {
	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid ENVIRONMENT %q: want development, test or production", c.Environment)
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.JWTAccessExpiry <= 0 || c.JWTRefreshExpiry <= 0 {
		return errors.New("token expiries must be positive")
	}
	if c.JWTAccessExpiry >= c.JWTRefreshExpiry {
		return fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRY (%s) must be shorter than JWT_REFRESH_TOKEN_EXPIRY (%s)",
			c.JWTAccessExpiry, c.JWTRefreshExpiry)
	}
	switch c.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", c.StoreDriver, StorePostgres, StoreMemory)
	}

	if c.IsProduction() {
		c.Secrets.Strict = true
	}
	return c.Secrets.resolve()
}

// resolve applies dev fallbacks outside strict mode and rejects unusable
// secret combinations.
func (s *Secrets) resolve() error {
	if s.Strict {
		var missing []string
		if s.AccessSecret == "" {
			missing = append(missing, "JWT_ACCESS_SECRET")
		}
		if s.RefreshSecret == "" {
			missing = append(missing, "JWT_REFRESH_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required secrets in strict mode: %v", missing)
		}
	} else {
		if s.AccessSecret == "" {
			s.AccessSecret = DevAccessSecret
		}
		if s.RefreshSecret == "" {
			s.RefreshSecret = DevRefreshSecret
		}
	}

	if s.AccessSecret == s.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SeedsDemoUser reports whether the demo account should be ensured at startup.
func (c *Config) SeedsDemoUser() bool {
	return c.DemoUserEnabled && !c.IsProduction() && c.DemoUsername != "" && c.DemoPassword != ""
}

// Postgres returns the connection pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	pg.MaxConns = c.DBMaxConns
	pg.MinConns = c.DBMinConns
	return pg
}

// SlowQueryThreshold returns the duration above which queries are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMS) * time.Millisecond
}
