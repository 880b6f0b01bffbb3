package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, sourced from the environment.
// A .env file in the working directory is honoured for local development.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Cache    CacheConfig
	Catalog  CatalogConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"HTTP_HOST,default="`
	Port            int           `env:"HTTP_PORT,default=8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=10s"`
}

// DatabaseConfig selects the persistence backend. An empty driver keeps the
// application on the in-memory store.
type DatabaseConfig struct {
	Driver          string        `env:"DATABASE_DRIVER,default="`
	DSN             string        `env:"DATABASE_URL,default="`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME,default=30m"`
}

// AuthConfig controls token signing and session lifetime.
type AuthConfig struct {
	JWTSecret          string        `env:"JWT_SECRET,default="`
	SessionTTL         time.Duration `env:"SESSION_TTL,default=24h"`
	LoginRatePerMinute int           `env:"LOGIN_RATE_PER_MINUTE,default=10"`
}

// LoggingConfig mirrors the logger package options.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info"`
	Format     string `env:"LOG_FORMAT,default=text"`
	Output     string `env:"LOG_OUTPUT,default=stdout"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=catalogd"`
}

// CacheConfig enables the optional Redis stats cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR,default="`
	RedisPassword string        `env:"REDIS_PASSWORD,default="`
	RedisDB       int           `env:"REDIS_DB,default=0"`
	StatsTTL      time.Duration `env:"STATS_CACHE_TTL,default=1m"`
}

// CatalogConfig holds domain-level knobs.
type CatalogConfig struct {
	OverdueSchedule string `env:"OVERDUE_SCHEDULE,default=@hourly"`
	OpenLibraryURL  string `env:"OPENLIBRARY_URL,default=https://openlibrary.org"`
	AuditLogPath    string `env:"AUDIT_LOG_PATH,default="`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.Database.Driver != "" && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is set")
	}
	switch cfg.Database.Driver {
	case "", "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Database.Driver)
	}

	return &cfg, nil
}
