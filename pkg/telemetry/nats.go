package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject prefix for session events.
const DefaultSubject = "nao.events"

// publisher is the part of *nats.Conn the sink uses.
type publisher interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATSSink publishes events as JSON to "<subject>.<kind>".
type NATSSink struct {
	conn    publisher
	subject string
	logger  *slog.Logger
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subject string, logger *slog.Logger) (*NATSSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telemetry.nats")

	nc, err := nats.Connect(url,
		nats.Name("go-nao"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", "url", url)
	return newNATSSink(nc, subject, logger), nil
}

func newNATSSink(conn publisher, subject string, logger *slog.Logger) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{conn: conn, subject: subject, logger: logger}
}

// Publish sends one event.
func (s *NATSSink) Publish(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return s.conn.Publish(s.subject+"."+ev.Kind, data)
}

// Close closes the connection.
func (s *NATSSink) Close() error {
	s.conn.Close()
	return nil
}

var _ Sink = (*NATSSink)(nil)
