package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the loader reads so host values cannot leak
// into assertions. t.Setenv restores the originals when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_HOST", "HTTP_PORT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
		"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS", "DATABASE_CONN_MAX_LIFETIME",
		"JWT_SECRET", "SESSION_TTL", "LOGIN_RATE_PER_MINUTE",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_FILE_PREFIX",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "STATS_CACHE_TTL",
		"OVERDUE_SCHEDULE", "OPENLIBRARY_URL", "AUDIT_LOG_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Database.Driver != "" || cfg.Database.MaxOpenConns != 25 {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour || cfg.Auth.LoginRatePerMinute != 10 {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Catalog.OverdueSchedule != "@hourly" || cfg.Catalog.OpenLibraryURL != "https://openlibrary.org" {
		t.Fatalf("unexpected catalog defaults: %+v", cfg.Catalog)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:catalog.db")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.DSN != "file:catalog.db" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Auth.SessionTTL != time.Hour {
		t.Fatalf("expected 1h session ttl, got %v", cfg.Auth.SessionTTL)
	}
	if cfg.Logging.Format != "json" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected overrides: %+v %+v", cfg.Logging, cfg.Cache)
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "postgres")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected missing DSN error, got %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("DATABASE_DRIVER", "oracle")
	_, err = Load()
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}
