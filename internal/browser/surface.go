package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/chromedp/chromedp"
)

// ensureOverlayScript creates the floating widget once per page. Styling and
// the drag handle live entirely here; the presenter never sees them.
const ensureOverlayScript = `(() => {
	let root = document.getElementById('captionpal-overlay');
	if (root) return;
	root = document.createElement('div');
	root.id = 'captionpal-overlay';
	root.style.cssText = 'position:fixed;right:16px;bottom:16px;width:280px;z-index:2147483647;' +
		'background:#111827;color:#f9fafb;border:1px solid #1f2937;border-radius:12px;' +
		'box-shadow:0 10px 30px rgba(0,0,0,0.25);padding:12px 14px;' +
		'font-family:"Trebuchet MS","Verdana","Segoe UI",sans-serif;user-select:none;cursor:grab;';
	const title = document.createElement('div');
	title.textContent = 'CaptionPal';
	title.style.cssText = 'font-size:14px;font-weight:700;letter-spacing:0.4px;margin-bottom:8px;color:#fbbf24;';
	const status = document.createElement('div');
	status.dataset.role = 'status';
	status.style.cssText = 'font-size:13px;font-weight:600;margin-bottom:8px;color:#93c5fd;';
	const content = document.createElement('div');
	content.dataset.role = 'content';
	content.style.cssText = 'font-size:14px;line-height:1.4;min-height:24px;';
	root.appendChild(title);
	root.appendChild(status);
	root.appendChild(content);
	document.body.appendChild(root);

	let sx = 0, sy = 0, ox = 0, oy = 0, dragging = false;
	const move = (e) => {
		if (!dragging) return;
		root.style.right = 'auto';
		root.style.bottom = 'auto';
		root.style.left = (ox + e.clientX - sx) + 'px';
		root.style.top = (oy + e.clientY - sy) + 'px';
	};
	const up = () => {
		dragging = false;
		root.style.cursor = 'grab';
		window.removeEventListener('pointermove', move);
		window.removeEventListener('pointerup', up);
	};
	root.addEventListener('pointerdown', (e) => {
		dragging = true;
		root.style.cursor = 'grabbing';
		const rect = root.getBoundingClientRect();
		sx = e.clientX; sy = e.clientY; ox = rect.left; oy = rect.top;
		window.addEventListener('pointermove', move);
		window.addEventListener('pointerup', up);
	});
})()`

var toneColors = map[string]string{
	"info":      "#93c5fd",
	"highlight": "#fbbf24",
	"success":   "#34d399",
}

// Surface renders the overlay widget inside the attached tab.
type Surface struct {
	page *Page
}

func NewSurface(page *Page) *Surface {
	return &Surface{page: page}
}

func (s *Surface) SetStatus(text, tone string) {
	color, ok := toneColors[tone]
	if !ok {
		color = toneColors["info"]
	}
	s.run(statusScript(text, color))
}

func (s *Surface) SetContent(text string) {
	s.run(contentScript(text))
}

func statusScript(text, color string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector('#captionpal-overlay [data-role="status"]');
		if (!el) return;
		el.textContent = %s;
		el.style.color = %s;
	})()`, jsString(text), jsString(color))
}

func contentScript(text string) string {
	return fmt.Sprintf(`(() => {
		const el = document.querySelector('#captionpal-overlay [data-role="content"]');
		if (!el) return;
		el.textContent = %s;
	})()`, jsString(text))
}

// jsString embeds arbitrary text into a script as a JS string literal.
func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

// run is best-effort, matching the bridge surface: a failed paint is logged
// and the next signal repaints.
func (s *Surface) run(script string) {
	runCtx, cancel := context.WithTimeout(s.page.ctx, snapshotTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx,
		chromedp.Evaluate(ensureOverlayScript, nil),
		chromedp.Evaluate(script, nil),
	); err != nil {
		log.Printf("browser: overlay update failed: %v", err)
	}
}
