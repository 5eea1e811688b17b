package capture

import (
	"context"
	"strings"
)

// Rect is a DOM bounding box in CSS pixels.
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Node is the structural summary of one live-region-ish element: everything
// discovery needs without holding a reference into the real DOM.
type Node struct {
	ID        string
	Role      string
	AriaLive  string
	Rect      Rect
	Text      string
	Visible   bool
	Connected bool
}

// Viewport is the page's visible size.
type Viewport struct {
	Width  float64
	Height float64
}

// Snapshot is one observation of every candidate caption element in the page.
type Snapshot struct {
	Viewport Viewport
	Nodes    []Node
}

// Page is the DOM adapter. Implementations read a real page (chromedp), an
// extension relay (pagebridge), or a fixture (tests).
type Page interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// NormalizeLine collapses runs of whitespace and trims the ends.
func NormalizeLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
