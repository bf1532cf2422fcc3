package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MIN_INITIAL_BALANCE", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.StoreBackend != config.StoreMemory {
		t.Fatalf("expected memory store by default, got %q", cfg.StoreBackend)
	}

	if !cfg.MinInitialBalance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected default minimum initial balance 100, got %s", cfg.MinInitialBalance)
	}

	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected 3 retries by default, got %d", cfg.RetryMaxAttempts)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.SummaryCacheTTL != 0 {
		t.Fatalf("expected summary cache disabled by default, got %s", cfg.SummaryCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("MIN_INITIAL_BALANCE", "0.50")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StoreBackend != config.StorePostgres {
		t.Fatalf("expected postgres store, got %s", cfg.StoreBackend)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if !cfg.MinInitialBalance.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected minimum initial balance override, got %s", cfg.MinInitialBalance)
	}

	if cfg.RunMigrations {
		t.Fatalf("expected migrations to be disabled")
	}

	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"duration", "HTTP_READ_TIMEOUT", "not-a-duration"},
		{"decimal", "MIN_INITIAL_BALANCE", "lots"},
		{"negative minimum", "MIN_INITIAL_BALANCE", "-1"},
		{"backend", "STORE_BACKEND", "sqlite"},
		{"negative retries", "RETRY_MAX_ATTEMPTS", "-2"},
		{"negative cache ttl", "SUMMARY_CACHE_TTL", "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
