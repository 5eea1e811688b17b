package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseBridgeMessageSnapshot(t *testing.T) {
	raw := []byte(`{
		"type": "page_snapshot",
		"seq": 7,
		"viewport_width": 1280,
		"viewport_height": 720,
		"nodes": [
			{"id": "n1", "aria_live": "polite", "rect": {"top": 600, "left": 100, "width": 400, "height": 40},
			 "text": "hello there", "visible": true, "connected": true}
		]
	}`)

	msg, err := ParseBridgeMessage(raw)
	if err != nil {
		t.Fatalf("ParseBridgeMessage error = %v", err)
	}
	snap, ok := msg.(PageSnapshot)
	if !ok {
		t.Fatalf("message type = %T, want PageSnapshot", msg)
	}
	if snap.Seq != 7 {
		t.Fatalf("Seq = %d, want 7", snap.Seq)
	}
	if len(snap.Nodes) != 1 || snap.Nodes[0].AriaLive != "polite" {
		t.Fatalf("unexpected nodes: %+v", snap.Nodes)
	}
}

func TestParseBridgeMessageRejectsMissingViewport(t *testing.T) {
	raw := []byte(`{"type": "page_snapshot", "nodes": []}`)
	if _, err := ParseBridgeMessage(raw); err == nil {
		t.Fatalf("ParseBridgeMessage error = nil, want invalid snapshot")
	}
}

func TestParseBridgeMessageUnsupportedType(t *testing.T) {
	raw := []byte(`{"type": "page_scroll"}`)
	if _, err := ParseBridgeMessage(raw); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("ParseBridgeMessage error = %v, want ErrUnsupportedType", err)
	}
}

func TestAnswerResponseOmitsBlockedWhenClear(t *testing.T) {
	body, err := json.Marshal(AnswerResponse{Answer: "Paris."})
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if string(body) != `{"answer":"Paris."}` {
		t.Fatalf("body = %s, want blocked/reason omitted", body)
	}
}
