package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mllorens/captionpal/internal/capture"
)

// snapshotTimeout bounds one DOM read so a wedged tab cannot stall the
// capture loop past its next tick.
const snapshotTimeout = 2 * time.Second

// snapshotScript tags every live-region-ish element with a stable id and
// returns its structural descriptor, mirroring what the extension relay
// sends over the bridge.
const snapshotScript = `(() => {
	const els = Array.from(document.querySelectorAll('[aria-live], [role="log"]'));
	const nodes = els.map((el) => {
		if (!el.dataset.cpid) {
			el.dataset.cpid = 'cp-' + Math.random().toString(36).slice(2);
		}
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const opacity = parseFloat(style.opacity || '1');
		const visible = style.display !== 'none' && style.visibility !== 'hidden' &&
			(!isFinite(opacity) || opacity !== 0) && rect.width > 0 && rect.height > 0;
		return {
			id: el.dataset.cpid,
			role: el.getAttribute('role') || '',
			aria_live: el.getAttribute('aria-live') || '',
			rect: {top: rect.top, left: rect.left, width: rect.width, height: rect.height},
			text: el.innerText || '',
			visible: visible,
			connected: el.isConnected
		};
	});
	return {viewport_width: window.innerWidth, viewport_height: window.innerHeight, nodes: nodes};
})()`

type pageSnapshot struct {
	ViewportWidth  float64    `json:"viewport_width"`
	ViewportHeight float64    `json:"viewport_height"`
	Nodes          []pageNode `json:"nodes"`
}

type pageNode struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	AriaLive string `json:"aria_live"`
	Rect     struct {
		Top    float64 `json:"top"`
		Left   float64 `json:"left"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"rect"`
	Text      string `json:"text"`
	Visible   bool   `json:"visible"`
	Connected bool   `json:"connected"`
}

// Page drives an already-running browser tab over the devtools protocol. It
// implements capture.Page and the overlay Surface against the live meeting
// page, with no extension installed.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Attach connects to a browser exposing a devtools websocket (for example
// one started with --remote-debugging-port) and binds to its active tab.
func Attach(ctx context.Context, devtoolsURL string) (*Page, error) {
	actx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, devtoolsURL)
	bctx, cancelBrowser := chromedp.NewContext(actx)

	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	// Probe the connection now so a bad URL fails at startup, not mid-run.
	probeCtx, cancelProbe := context.WithTimeout(bctx, 10*time.Second)
	defer cancelProbe()
	var title string
	if err := chromedp.Run(probeCtx, chromedp.Title(&title)); err != nil {
		cancel()
		return nil, fmt.Errorf("attach to browser: %w", err)
	}

	return &Page{ctx: bctx, cancel: cancel}, nil
}

func (p *Page) Close() {
	p.cancel()
}

// Snapshot reads the page's live-region candidates in one evaluate call.
func (p *Page) Snapshot(ctx context.Context) (capture.Snapshot, error) {
	runCtx, cancel := context.WithTimeout(p.ctx, snapshotTimeout)
	defer cancel()

	var raw pageSnapshot
	if err := chromedp.Run(runCtx, chromedp.Evaluate(snapshotScript, &raw)); err != nil {
		return capture.Snapshot{}, fmt.Errorf("evaluate snapshot: %w", err)
	}

	snap := capture.Snapshot{
		Viewport: capture.Viewport{Width: raw.ViewportWidth, Height: raw.ViewportHeight},
		Nodes:    make([]capture.Node, 0, len(raw.Nodes)),
	}
	for _, n := range raw.Nodes {
		snap.Nodes = append(snap.Nodes, capture.Node{
			ID:       n.ID,
			Role:     n.Role,
			AriaLive: n.AriaLive,
			Rect: capture.Rect{
				Top:    n.Rect.Top,
				Left:   n.Rect.Left,
				Width:  n.Rect.Width,
				Height: n.Rect.Height,
			},
			Text:      n.Text,
			Visible:   n.Visible,
			Connected: n.Connected,
		})
	}
	return snap, nil
}
