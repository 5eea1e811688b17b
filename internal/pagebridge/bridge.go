package pagebridge

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mllorens/captionpal/internal/capture"
	"github.com/mllorens/captionpal/internal/protocol"
)

// Bridge is the extension-relay page adapter: a browser-side helper connects
// over websocket, streams page snapshots in, and renders overlay commands
// out. The bridge holds the latest snapshot so the capture watcher can poll
// it without blocking on the socket.
//
// It implements capture.Page and the overlay Surface.
type Bridge struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	snap    capture.Snapshot
	lastSeq int64
}

func New() *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 4096,
			// The relay runs on the same machine as the agent; remote pages
			// never reach this listener.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler upgrades one relay connection. A newer relay replaces the old one.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("pagebridge: upgrade failed: %v", err)
			return
		}

		b.mu.Lock()
		if b.conn != nil {
			_ = b.conn.Close()
		}
		b.conn = conn
		// The sequence counter is per relay; a reloaded page starts over at 1.
		b.lastSeq = 0
		b.mu.Unlock()
		log.Printf("pagebridge: relay connected from %s", r.RemoteAddr)

		b.readLoop(conn)
	})
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		_ = conn.Close()
		log.Printf("pagebridge: relay disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseBridgeMessage(raw)
		if err != nil {
			log.Printf("pagebridge: dropping frame: %v", err)
			continue
		}
		if snap, ok := msg.(protocol.PageSnapshot); ok {
			b.storeSnapshot(conn, snap)
		}
	}
}

func (b *Bridge) storeSnapshot(conn *websocket.Conn, snap protocol.PageSnapshot) {
	converted := capture.Snapshot{
		Viewport: capture.Viewport{Width: snap.ViewportWidth, Height: snap.ViewportHeight},
		Nodes:    make([]capture.Node, 0, len(snap.Nodes)),
	}
	for _, n := range snap.Nodes {
		converted.Nodes = append(converted.Nodes, capture.Node{
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

	b.mu.Lock()
	defer b.mu.Unlock()
	if conn != b.conn {
		// A replaced relay may still flush a few frames before its read
		// loop notices the close.
		return
	}
	if snap.Seq < b.lastSeq {
		// Frames within one relay can arrive reordered; keep the newest.
		return
	}
	b.lastSeq = snap.Seq
	b.snap = converted
}

// Snapshot returns the latest relayed page state. Before the first frame the
// snapshot is empty, which the watcher treats as a page without captions.
func (b *Bridge) Snapshot(ctx context.Context) (capture.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap, nil
}

// SetStatus sends an overlay status command to the relay.
func (b *Bridge) SetStatus(text, tone string) {
	b.send(protocol.OverlayStatus{Type: protocol.TypeOverlayStatus, Status: text, Tone: tone})
}

// SetContent sends overlay body text to the relay.
func (b *Bridge) SetContent(text string) {
	b.send(protocol.OverlayContent{Type: protocol.TypeOverlayContent, Text: text})
}

// send is best-effort: with no relay attached the overlay simply is not
// drawn, the same way capture idles without a container.
func (b *Bridge) send(v any) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("pagebridge: overlay write failed: %v", err)
	}
}
