package capture

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBufferLimit     = 6
	DefaultProcessInterval = 250 * time.Millisecond
	DefaultRescanInterval  = 2 * time.Second
)

// LineFunc receives one freshly accepted caption line plus a copy of the
// buffer after the append (the line itself is the last entry).
type LineFunc func(line string, buffer []string)

// WatcherConfig tunes the observation cadence. Zero values take defaults.
type WatcherConfig struct {
	BufferLimit     int
	ProcessInterval time.Duration
	RescanInterval  time.Duration
}

// Watcher keeps the caption buffer current against an unreliable page: it
// discovers the caption container, re-validates it on every observation, and
// retries discovery forever when the page has no captions. A page without a
// caption container is idle, not an error.
type Watcher struct {
	page   Page
	cfg    WatcherConfig
	onLine LineFunc

	mu            sync.Mutex
	containerID   string
	buffer        []string
	lastLine      string
	lastText      string
	lastDiscovery time.Time
}

func NewWatcher(page Page, cfg WatcherConfig, onLine LineFunc) *Watcher {
	if cfg.BufferLimit <= 0 {
		cfg.BufferLimit = DefaultBufferLimit
	}
	if cfg.ProcessInterval <= 0 {
		cfg.ProcessInterval = DefaultProcessInterval
	}
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = DefaultRescanInterval
	}
	return &Watcher{page: page, cfg: cfg, onLine: onLine}
}

// Run observes the page until ctx is done. Observation is paced by the
// process interval, which also coalesces mutation bursts: at most one text
// scan is in flight per tick.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.Observe(ctx, now)
		}
	}
}

// Observe performs one observation step. Split out from Run so tests can
// drive time explicitly.
func (w *Watcher) Observe(ctx context.Context, now time.Time) {
	snap, err := w.page.Snapshot(ctx)
	if err != nil {
		// Page faults must never halt the loop; the next tick retries.
		log.Printf("capture: snapshot failed: %v", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	container, ok := w.currentContainer(snap)
	if !ok {
		w.containerID = ""
		if now.Sub(w.lastDiscovery) < w.cfg.RescanInterval && !w.lastDiscovery.IsZero() {
			return
		}
		w.lastDiscovery = now
		container, ok = SelectContainer(snap)
		if !ok {
			return
		}
		w.containerID = container.ID
		w.lastText = ""
		log.Printf("capture: caption container selected: %s", container.ID)
	}

	w.processText(container.Text)
}

// currentContainer re-validates the selected container against the snapshot.
// Detached or hidden containers are dropped so discovery re-runs.
func (w *Watcher) currentContainer(snap Snapshot) (Node, bool) {
	if w.containerID == "" {
		return Node{}, false
	}
	for _, n := range snap.Nodes {
		if n.ID == w.containerID {
			if IsCaptionContainer(n, snap.Viewport) {
				return n, true
			}
			return Node{}, false
		}
	}
	return Node{}, false
}

func (w *Watcher) processText(text string) {
	if text == w.lastText {
		return
	}
	w.lastText = text

	for _, raw := range strings.Split(text, "\n") {
		line := NormalizeLine(raw)
		if line == "" || line == w.lastLine {
			continue
		}
		w.lastLine = line
		w.buffer = append(w.buffer, line)
		if len(w.buffer) > w.cfg.BufferLimit {
			w.buffer = w.buffer[1:]
		}
		if w.onLine != nil {
			w.onLine(line, append([]string(nil), w.buffer...))
		}
	}
}

// Buffer returns a copy of the current caption buffer, oldest first.
func (w *Watcher) Buffer() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.buffer...)
}

// ContainerID reports the currently selected container, empty when idle.
func (w *Watcher) ContainerID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.containerID
}
