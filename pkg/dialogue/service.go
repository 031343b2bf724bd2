package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-nao/pkg/intent"
	"github.com/teslashibe/go-nao/pkg/protocol"
)

const resultBuffer = 16

// Service is a backend for a remote dialogue service that owns the robot
// microphone. Each DetectIntent sends detect_intent and waits for the
// matching query_result; recognition messages received meanwhile are
// published as notices.
type Service struct {
	conn     *websocket.Conn
	wsMu     sync.Mutex
	language string
	rate     int
	timeout  time.Duration
	stream   *intent.Stream
	logger   *slog.Logger

	results chan *protocol.Message
	done    chan struct{}
	readErr error

	closeOnce sync.Once
}

// DialService connects to the dialogue service.
func DialService(ctx context.Context, opts ...Option) (*Service, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.ServiceURL == "" {
		return nil, ErrMissingURL
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, cfg.ServiceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialogue: connect %s: %w", cfg.ServiceURL, err)
	}

	s := &Service{
		conn:     conn,
		language: cfg.Language,
		rate:     cfg.SampleRate,
		timeout:  cfg.RequestTimeout,
		stream:   intent.NewStream(cfg.StreamBuffer),
		logger:   cfg.Logger.With("component", "dialogue.service", "url", cfg.ServiceURL),
		results:  make(chan *protocol.Message, resultBuffer),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// DetectIntent requests one detection and waits for its result.
func (s *Service) DetectIntent(ctx context.Context, sessionID string) (intent.Event, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// Discard results nobody waited for.
drain:
	for {
		select {
		case <-s.results:
		default:
			break drain
		}
	}

	msg, err := protocol.NewDetectIntentMessage(sessionID, s.language, s.rate)
	if err != nil {
		return intent.Event{}, err
	}
	if err := s.send(msg); err != nil {
		return intent.Event{}, fmt.Errorf("%w: %v", intent.ErrBackendClosed, err)
	}

	for {
		select {
		case <-ctx.Done():
			return intent.Event{}, ctx.Err()
		case <-s.done:
			return intent.Event{}, fmt.Errorf("%w: %v", intent.ErrBackendClosed, s.readErr)
		case res := <-s.results:
			if res.Type == protocol.TypeError {
				data, _ := res.GetErrorData()
				if data == nil {
					data = &protocol.ErrorData{Message: "unknown error"}
				}
				return intent.Event{}, fmt.Errorf("dialogue: service error %s: %s", data.Code, data.Message)
			}

			qr, err := res.GetQueryResultData()
			if err != nil {
				return intent.Event{}, fmt.Errorf("dialogue: decode query result: %w", err)
			}
			if qr.SessionID != "" && qr.SessionID != sessionID {
				s.logger.Warn("ignoring result for another session", "session_id", qr.SessionID)
				continue
			}
			return intent.Event{
				Intent:             qr.Intent,
				Confidence:         qr.Confidence,
				Parameters:         qr.Parameters,
				Transcript:         qr.Transcript,
				FulfillmentMessage: qr.Fulfillment,
			}, nil
		}
	}
}

func (s *Service) readLoop() {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			s.logger.Debug("read loop ended", "error", err)
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			s.logger.Warn("bad message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeRecognition:
			rec, err := msg.GetRecognitionData()
			if err != nil {
				s.logger.Warn("bad recognition", "error", err)
				continue
			}
			s.stream.Publish(intent.Notice{Transcript: rec.Transcript, Final: rec.IsFinal})

		case protocol.TypeQueryResult, protocol.TypeError:
			select {
			case s.results <- msg:
			default:
				s.logger.Warn("dropping unexpected result", "type", msg.Type)
			}

		case protocol.TypePing:
			ping, err := msg.GetPingData()
			if err != nil {
				continue
			}
			pong, err := protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())
			if err == nil {
				s.send(pong)
			}

		default:
			s.logger.Debug("ignoring message", "type", msg.Type)
		}
	}
}

func (s *Service) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// LatestFinal returns the last final recognition result from the service.
func (s *Service) LatestFinal() (intent.Notice, bool) {
	return s.stream.LatestFinal()
}

// Notices returns the recognition notice stream.
func (s *Service) Notices() <-chan intent.Notice {
	return s.stream.C()
}

// Close closes the connection. It is safe to call more than once.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.wsMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
			time.Now().Add(time.Second))
		s.wsMu.Unlock()
		err = s.conn.Close()
		s.stream.Close()
	})
	return err
}

var (
	_ intent.Backend          = (*Service)(nil)
	_ intent.TranscriptSource = (*Service)(nil)
)
