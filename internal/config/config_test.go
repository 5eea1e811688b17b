package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8787" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8787")
	}
	if cfg.AnswerAdapterMode != "auto" {
		t.Fatalf("AnswerAdapterMode = %q, want %q", cfg.AnswerAdapterMode, "auto")
	}
	if cfg.RateLimitWindow != 10*time.Second || cfg.RateLimitMax != 5 {
		t.Fatalf("rate limit defaults = (%v, %d), want (10s, 5)", cfg.RateLimitWindow, cfg.RateLimitMax)
	}
}

func TestLoadTrimsSecrets(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AUTH_TOKEN_SECRET", "  hush \n")
	t.Setenv("FAMILY_ACCESS_KEY", " family-123 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AuthTokenSecret != "hush" {
		t.Fatalf("AuthTokenSecret = %q, want trimmed value", cfg.AuthTokenSecret)
	}
	if cfg.FamilyAccessKey != "family-123" {
		t.Fatalf("FamilyAccessKey = %q, want trimmed value", cfg.FamilyAccessKey)
	}
}

func TestLoadRejectsBadAdapterMode(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("ANSWER_ADAPTER_MODE", "llama")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want invalid mode")
	}
}

func TestLoadRejectsTinyRateWindow(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("RATE_LIMIT_WINDOW", "100ms")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want window validation error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"AUTH_TOKEN_SECRET",
		"FAMILY_ACCESS_KEY",
		"ANSWER_ADAPTER_MODE",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"RATE_LIMIT_WINDOW",
		"RATE_LIMIT_MAX",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
