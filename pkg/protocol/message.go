// Package protocol defines the WebSocket messages exchanged with a dialogue
// service, the process that owns the robot microphone and runs speech
// recognition plus intent detection.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → service
	TypeDetectIntent MessageType = "detect_intent" // Listen for one utterance

	// Service → client
	TypeRecognition MessageType = "recognition"  // Interim or final transcript
	TypeQueryResult MessageType = "query_result" // Detected intent, ends a detect_intent
	TypeError       MessageType = "error"        // Failed detect_intent

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// DetectIntentRequest asks the service to listen for one utterance.
type DetectIntentRequest struct {
	SessionID  string `json:"session_id"`
	Language   string `json:"language,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// RecognitionData is a streaming transcript update.
type RecognitionData struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"is_final"`
}

// QueryResultData is the outcome of a detect_intent request.
type QueryResultData struct {
	SessionID   string         `json:"session_id"`
	Intent      string         `json:"intent,omitempty"`
	Confidence  *float64       `json:"confidence,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Transcript  string         `json:"transcript,omitempty"`
	Fulfillment string         `json:"fulfillment,omitempty"`
}

// ErrorData reports a failed request.
type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
