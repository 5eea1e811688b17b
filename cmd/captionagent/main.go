package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mllorens/captionpal/internal/agent"
	"github.com/mllorens/captionpal/internal/apiclient"
	"github.com/mllorens/captionpal/internal/browser"
	"github.com/mllorens/captionpal/internal/capture"
	"github.com/mllorens/captionpal/internal/overlay"
	"github.com/mllorens/captionpal/internal/pagebridge"
)

type options struct {
	apiBaseURL  string
	familyKey   string
	mode        string
	bridgeAddr  string
	devtoolsURL string
}

func main() {
	var opts options
	flag.StringVar(&opts.apiBaseURL, "api", "http://localhost:8787", "answer backend base URL")
	flag.StringVar(&opts.familyKey, "family-key", "", "shared family access key, if the backend requires one")
	flag.StringVar(&opts.mode, "mode", "bridge", "page adapter mode: bridge|browser")
	flag.StringVar(&opts.bridgeAddr, "bridge-addr", "127.0.0.1:8788", "listen address for the extension relay (bridge mode)")
	flag.StringVar(&opts.devtoolsURL, "devtools-url", "ws://127.0.0.1:9222", "browser devtools websocket URL (browser mode)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		page    capture.Page
		surface overlay.Surface
		cleanup func()
	)

	switch strings.ToLower(strings.TrimSpace(opts.mode)) {
	case "bridge":
		bridge := pagebridge.New()
		page = bridge
		surface = bridge

		bridgeServer := &http.Server{Addr: opts.bridgeAddr, Handler: bridge.Handler()}
		go func() {
			log.Printf("bridge listening on ws://%s", opts.bridgeAddr)
			if err := bridgeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("bridge listen error: %v", err)
			}
		}()
		cleanup = func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			_ = bridgeServer.Shutdown(shutdownCtx)
		}
	case "browser":
		attached, err := browser.Attach(ctx, opts.devtoolsURL)
		if err != nil {
			log.Fatalf("browser attach failed: %v", err)
		}
		page = attached
		surface = browser.NewSurface(attached)
		cleanup = attached.Close
		log.Printf("attached to browser at %s", opts.devtoolsURL)
	default:
		log.Fatalf("invalid -mode: %q (expected bridge|browser)", opts.mode)
	}
	defer cleanup()

	client := apiclient.New(opts.apiBaseURL, opts.familyKey)
	presenter := overlay.NewPresenter(surface)
	runner := agent.NewRunner(client, presenter)

	watcher := capture.NewWatcher(page, capture.WatcherConfig{}, func(line string, buffer []string) {
		runner.HandleLine(ctx, line, buffer)
	})

	presenter.ShowListening()
	go watcher.Run(ctx)
	log.Printf("listening for captions (backend %s)", opts.apiBaseURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutting down")
	cancel()
}
