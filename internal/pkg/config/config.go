package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session backends accepted by SESSION_BACKEND.
const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend BackendConfig
	Session SessionConfig
	Routes  RoutesConfig

	Mongo MongoConfig
	Redis RedisConfig
}

// BackendConfig points at the Onegat REST API.
type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:8000/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=10s"`
}

type SessionConfig struct {
	Store        string        `env:"SESSION_BACKEND, default=redis"`
	TTL          time.Duration `env:"SESSION_TTL,     default=720h"`
	ShellIdleTTL time.Duration `env:"SHELL_IDLE_TTL,  default=30m"`
	Cookie       string        `env:"SCOPE_COOKIE,    default=onegat_scope"`
	CookieSecure bool          `env:"COOKIE_SECURE,   default=false"`
	// LoginRateLimit is the number of login and reset attempts allowed per
	// client IP per minute.
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT, default=10"`
}

type RoutesConfig struct {
	LoginPath     string `env:"LOGIN_PATH,     default=/"`
	ForbiddenPath string `env:"FORBIDDEN_PATH, default=/no-autorizado"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=onegat_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether human-friendly output should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev" || c.Env == "local"
}

// Load reads configuration from environment variables using go-envconfig.
// It panics on malformed values.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom processes configuration from an arbitrary lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of redis, mongo, memory; got %q", c.Session.Store)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.Session.LoginRateLimit <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be positive")
	}
	return nil
}
