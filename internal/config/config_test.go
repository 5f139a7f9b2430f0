package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	// Unset key returns fallback
	os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "default" {
		t.Errorf("envOr unset key = %q, want %q", got, "default")
	}

	// Set key returns value
	os.Setenv("TEST_ENVOR_KEY", "custom")
	defer os.Unsetenv("TEST_ENVOR_KEY")
	if got := envOr("TEST_ENVOR_KEY", "default"); got != "custom" {
		t.Errorf("envOr set key = %q, want %q", got, "custom")
	}

	// Empty string returns fallback
	os.Setenv("TEST_ENVOR_KEY", "")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOr empty key = %q, want %q", got, "fallback")
	}
}

func TestEnvDurationOr(t *testing.T) {
	os.Unsetenv("TEST_DUR_KEY")
	if got := envDurationOr("TEST_DUR_KEY", 15*time.Minute); got != 15*time.Minute {
		t.Errorf("unset = %v, want 15m", got)
	}

	os.Setenv("TEST_DUR_KEY", "30m")
	defer os.Unsetenv("TEST_DUR_KEY")
	if got := envDurationOr("TEST_DUR_KEY", 15*time.Minute); got != 30*time.Minute {
		t.Errorf("set = %v, want 30m", got)
	}

	os.Setenv("TEST_DUR_KEY", "not-a-duration")
	if got := envDurationOr("TEST_DUR_KEY", 15*time.Minute); got != 15*time.Minute {
		t.Errorf("invalid = %v, want fallback 15m", got)
	}
}

func TestEnvIntOr(t *testing.T) {
	os.Unsetenv("TEST_INT_KEY")
	if got := envIntOr("TEST_INT_KEY", 5); got != 5 {
		t.Errorf("unset = %d, want 5", got)
	}

	os.Setenv("TEST_INT_KEY", "8")
	defer os.Unsetenv("TEST_INT_KEY")
	if got := envIntOr("TEST_INT_KEY", 5); got != 8 {
		t.Errorf("set = %d, want 8", got)
	}

	os.Setenv("TEST_INT_KEY", "-3")
	if got := envIntOr("TEST_INT_KEY", 5); got != 5 {
		t.Errorf("negative = %d, want fallback 5", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "REDIS_PASSWORD", "FRONTEND_ORIGIN",
		"FINNHUB_API_KEY", "FINNHUB_BASE_URL", "SMTP_HOST", "SMTP_PORT",
		"SMTP_USERNAME", "SMTP_PASSWORD", "EMAIL_FROM", "CYCLE_SPEC",
		"ALERT_COOLDOWN", "FETCH_WORKERS", "FETCH_TIMEOUT",
		"INFISICAL_CLIENT_ID", "INFISICAL_CLIENT_SECRET",
	} {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.FrontendOrigin != "*" {
		t.Errorf("FrontendOrigin = %q, want %q", cfg.FrontendOrigin, "*")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.CycleSpec != "*/15 9-16 * * 1-5" {
		t.Errorf("CycleSpec = %q, want market-hours default", cfg.CycleSpec)
	}
	if cfg.Cooldown != 15*time.Minute {
		t.Errorf("Cooldown = %v, want 15m", cfg.Cooldown)
	}
	if cfg.FetchWorkers != 5 {
		t.Errorf("FetchWorkers = %d, want 5", cfg.FetchWorkers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("FINNHUB_API_KEY", "test-key")
	os.Setenv("ALERT_COOLDOWN", "1h")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("FINNHUB_API_KEY")
		os.Unsetenv("ALERT_COOLDOWN")
	}()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.DatabaseURL != "postgres://test" {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://test")
	}
	if cfg.FinnhubAPIKey != "test-key" {
		t.Errorf("FinnhubAPIKey = %q, want %q", cfg.FinnhubAPIKey, "test-key")
	}
	if cfg.Cooldown != time.Hour {
		t.Errorf("Cooldown = %v, want 1h", cfg.Cooldown)
	}
}
