package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AnswerRequest is the body of POST /answer.
type AnswerRequest struct {
	Question string   `json:"question"`
	Context  []string `json:"context,omitempty"`
}

// AnswerResponse is the success body of POST /answer. Blocked answers are
// still 200s: the caller always receives something displayable.
type AnswerResponse struct {
	Answer  string `json:"answer"`
	Blocked bool   `json:"blocked,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// InstallResponse is the body of POST /install.
type InstallResponse struct {
	Token     string `json:"token"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ErrorResponse is the body of every non-2xx gateway reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageType identifies page-bridge websocket payload variants.
type MessageType string

const (
	TypePageSnapshot   MessageType = "page_snapshot"
	TypeOverlayStatus  MessageType = "overlay_status"
	TypeOverlayContent MessageType = "overlay_content"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// Rect is a DOM bounding box in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NodeDescriptor is the structural summary of one candidate caption element,
// enough for container scoring without access to the real DOM.
type NodeDescriptor struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	AriaLive  string `json:"aria_live"`
	Rect      Rect   `json:"rect"`
	Text      string `json:"text"`
	Visible   bool   `json:"visible"`
	Connected bool   `json:"connected"`
}

// PageSnapshot is the bridge's report of every live-region-ish element
// currently in the page, plus the viewport they were measured against.
type PageSnapshot struct {
	Type           MessageType      `json:"type"`
	Seq            int64            `json:"seq"`
	ViewportWidth  float64          `json:"viewport_width"`
	ViewportHeight float64          `json:"viewport_height"`
	Nodes          []NodeDescriptor `json:"nodes"`
}

// OverlayStatus asks the bridge to set the overlay status line.
type OverlayStatus struct {
	Type   MessageType `json:"type"`
	Status string      `json:"status"`
	Tone   string      `json:"tone,omitempty"`
}

// OverlayContent asks the bridge to replace the overlay body text.
type OverlayContent struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

// ParseBridgeMessage decodes one inbound bridge frame.
func ParseBridgeMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypePageSnapshot:
		var msg PageSnapshot
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.ViewportWidth <= 0 || msg.ViewportHeight <= 0 {
			return nil, errors.New("invalid page_snapshot: missing viewport")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
