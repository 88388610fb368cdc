package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN == "" {
		t.Error("expected a default DSN")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session TTL of 24h, got %v", cfg.SessionTTL)
	}
	if cfg.ResponseWindow != 168*time.Hour {
		t.Errorf("expected default response window of 168h, got %v", cfg.ResponseWindow)
	}
	if cfg.DateCacheTTL != 30*time.Second || cfg.DateCacheSize != 8 {
		t.Errorf("unexpected cache defaults: ttl=%v size=%d", cfg.DateCacheTTL, cfg.DateCacheSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("COORDINATOR_HTTP_PORT", "9090")
	t.Setenv("COORDINATOR_SQLITE_DSN", "file:override.db")
	t.Setenv("COORDINATOR_BASE_URL", "https://seminars.example.org")
	t.Setenv("COORDINATOR_SESSION_TTL", "1h")
	t.Setenv("COORDINATOR_RESPONSE_WINDOW", "72h")
	t.Setenv("COORDINATOR_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:override.db" {
		t.Errorf("expected overridden DSN, got %q", cfg.SQLiteDSN)
	}
	if cfg.BaseURL != "https://seminars.example.org" {
		t.Errorf("expected overridden base URL, got %q", cfg.BaseURL)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected session TTL of 1h, got %v", cfg.SessionTTL)
	}
	if cfg.ResponseWindow != 72*time.Hour {
		t.Errorf("expected response window of 72h, got %v", cfg.ResponseWindow)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		envVar  string
		value   string
		mention string
	}{
		{name: "port out of range", envVar: "COORDINATOR_HTTP_PORT", value: "70000", mention: "COORDINATOR_HTTP_PORT"},
		{name: "blank dsn", envVar: "COORDINATOR_SQLITE_DSN", value: "   ", mention: "COORDINATOR_SQLITE_DSN"},
		{name: "blank base url", envVar: "COORDINATOR_BASE_URL", value: "   ", mention: "COORDINATOR_BASE_URL"},
		{name: "zero session ttl", envVar: "COORDINATOR_SESSION_TTL", value: "0s", mention: "COORDINATOR_SESSION_TTL"},
		{name: "negative response window", envVar: "COORDINATOR_RESPONSE_WINDOW", value: "-1h", mention: "COORDINATOR_RESPONSE_WINDOW"},
		{name: "zero cache ttl", envVar: "COORDINATOR_DATE_CACHE_TTL", value: "0s", mention: "COORDINATOR_DATE_CACHE_TTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.envVar, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.mention) {
				t.Errorf("expected error naming %s, got %v", tc.mention, err)
			}
		})
	}
}

func TestLoad_UnparsableDuration(t *testing.T) {
	t.Setenv("COORDINATOR_SESSION_TTL", "whenever")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error")
	}
}
