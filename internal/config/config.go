package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the answer backend.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AuthTokenSecret string
	FamilyAccessKey string

	AnswerAdapterMode string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string

	RateLimitWindow time.Duration
	RateLimitMax    int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8787"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "captionpal"),
		AuthTokenSecret:   trimmedEnv("AUTH_TOKEN_SECRET"),
		FamilyAccessKey:   trimmedEnv("FAMILY_ACCESS_KEY"),
		AnswerAdapterMode: envOrDefault("ANSWER_ADAPTER_MODE", "auto"),
		OpenAIAPIKey:      trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:     trimmedEnv("OPENAI_BASE_URL"),
		OpenAIModel:       trimmedEnv("OPENAI_MODEL"),
		ShutdownTimeout:   15 * time.Second,
		RateLimitWindow:   10 * time.Second,
		RateLimitMax:      5,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitWindow, err = durationFromEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitMax, err = intFromEnv("RATE_LIMIT_MAX", cfg.RateLimitMax)
	if err != nil {
		return Config{}, err
	}

	if cfg.RateLimitWindow < time.Second {
		return Config{}, fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if cfg.RateLimitMax <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.AnswerAdapterMode)) {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid ANSWER_ADAPTER_MODE: %q (expected auto|openai|mock)", cfg.AnswerAdapterMode)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
