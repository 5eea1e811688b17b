package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mllorens/captionpal/internal/answer"
	"github.com/mllorens/captionpal/internal/config"
	"github.com/mllorens/captionpal/internal/httpapi"
	"github.com/mllorens/captionpal/internal/observability"
	"github.com/mllorens/captionpal/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if cfg.AuthTokenSecret == "" {
		log.Printf("warning: AUTH_TOKEN_SECRET is not set; /install and /answer will refuse clients")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	adapter, err := answer.NewAdapter(answer.Config{
		Mode:    cfg.AnswerAdapterMode,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		log.Fatalf("answer adapter init failed: %v", err)
	}
	if _, isMock := adapter.(*answer.MockAdapter); isMock {
		log.Printf("answer adapter: mock (no OPENAI_API_KEY)")
	}

	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax)
	api := httpapi.New(cfg, limiter, adapter, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
