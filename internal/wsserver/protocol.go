// Package wsserver broadcasts key events to localhost WebSocket clients.
//
// # Frame protocol
//
// Every frame is a JSON text message:
//
//	{"type":"key-press","payload":{...KeyEvent...}}
//
// Clients never send application messages; anything they send besides
// control frames is read and discarded.
package wsserver

import (
	"encoding/json"
	"fmt"
)

// MessageKeyPress is the envelope type for a captured key event.
const MessageKeyPress = "key-press"

// MessagePaused is the envelope type for pause state changes.
const MessagePaused = "paused"

// Envelope is the wire form of every frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEnvelope marshals payload inside an Envelope of the given type.
func EncodeEnvelope(msgType string, payload any) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("wsserver: encode envelope: type must not be empty")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wsserver: encode %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// DecodeEnvelope parses a frame produced by EncodeEnvelope.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("wsserver: decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("wsserver: decode envelope: missing type")
	}
	return env, nil
}
