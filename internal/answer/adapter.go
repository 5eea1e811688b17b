package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GenerateTimeout bounds one upstream call. There are no retries: a slow or
// failing provider surfaces as a request failure so classroom latency stays
// bounded.
const GenerateTimeout = 8 * time.Second

// Request carries one question plus the caption lines heard just before it.
type Request struct {
	Question string
	Context  []string
}

// Adapter produces a short answer for a question. Implementations make at
// most one upstream call per invocation.
type Adapter interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
	Model   string
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
		}
		return NewMockAdapter(), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("openai api key is required for openai mode")
		}
		return NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported answer adapter mode %q", cfg.Mode)
	}
}
