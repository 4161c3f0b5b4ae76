// Package connection defines the wire frames exchanged with the streaming
// backend and the Connection interface implemented by transports.
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Frame is a single JSON message on the persistent channel.
// Type names the event category; Data carries the payload verbatim.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewFrame builds a frame with the payload marshaled into Data.
// A nil payload produces a frame with no data field.
func NewFrame(eventType string, payload any) (*Frame, error) {
	f := &Frame{Type: eventType}
	if payload == nil {
		return f, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %q frame: %w", eventType, err)
	}
	f.Data = data
	return f, nil
}

// Control frame constructors. These are the outbound frames the backend
// recognizes for stream management.

func Subscribe(symbol string) *Frame {
	f, _ := NewFrame("subscribe", map[string]string{"symbol": symbol})
	return f
}

func Unsubscribe(symbol string) *Frame {
	f, _ := NewFrame("unsubscribe", map[string]string{"symbol": symbol})
	return f
}

func SubscribeTraining(modelID string) *Frame {
	f, _ := NewFrame("subscribe_training", map[string]string{"modelId": modelID})
	return f
}

func UnsubscribeTraining(modelID string) *Frame {
	f, _ := NewFrame("unsubscribe_training", map[string]string{"modelId": modelID})
	return f
}

func Ping(clientID string, at time.Time) *Frame {
	f, _ := NewFrame("ping", map[string]any{
		"clientId":  clientID,
		"timestamp": at.UnixMilli(),
	})
	return f
}

// Connection is one persistent channel to the streaming backend.
//
// After a successful Connect, inbound frames are delivered on the Frames
// channel. The channel is closed when the connection dies, whether by a
// local Close, a server-initiated close, or a transport error. Once Frames
// is closed, CloseErr reports why: nil for a normal closure, non-nil for an
// abnormal one.
type Connection interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	Write(f *Frame) error
	Frames() <-chan *Frame
	CloseErr() error
	IsClosed() bool
}
