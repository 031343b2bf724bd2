// Package hub fans messages out to websocket clients over channels.
package hub

// Message is one pre-encoded JSON text frame broadcast to every client.
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
