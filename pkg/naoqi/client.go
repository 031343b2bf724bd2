// Package naoqi drives a NAO robot through the NAOqi HTTP bridge.
//
// The bridge exposes one JSON endpoint per robot service under /api. Every
// command carries a "block" flag: when true the bridge answers once the
// robot has finished, otherwise as soon as the command has been queued.
//
// Failures to reach the bridge (refused connections, dial timeouts, an open
// circuit breaker) are reported as action.TransportError. A reachable bridge
// that rejects a command answers with a non-2xx status, reported as
// *APIError. A bridge that accepted a command but did not answer within the
// client timeout is reported as *TimeoutError; the connection is intact, so
// neither of the last two counts against the breaker.
package naoqi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/teslashibe/go-nao/internal/httpc"
	"github.com/teslashibe/go-nao/pkg/action"
)

// Client implements action.Robot over the NAOqi HTTP bridge.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New creates a bridge client.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger.With("component", "naoqi", "base_url", cfg.BaseURL)

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "naoqi",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		http:    hc,
		cb:      cb,
		logger:  logger,
	}, nil
}

// Say speaks text.
func (c *Client) Say(ctx context.Context, text string, blocking bool) error {
	return c.post(ctx, "tts/say", sayRequest{Text: text, Block: blocking})
}

// Posture goes to a predefined posture at the given speed (0-1).
func (c *Client) Posture(ctx context.Context, name string, speed float64, blocking bool) error {
	return c.post(ctx, "motion/posture", postureRequest{Name: name, Speed: speed, Block: blocking})
}

// Animate runs an installed animation, e.g. "animations/Stand/Gestures/Hey_1".
func (c *Client) Animate(ctx context.Context, id string, blocking bool) error {
	return c.post(ctx, "motion/animation", animationRequest{Name: id, Block: blocking})
}

// Move walks relative to the current position.
func (c *Client) Move(ctx context.Context, dx, dy, dtheta float64, blocking bool) error {
	return c.post(ctx, "motion/move", moveRequest{X: dx, Y: dy, Theta: dtheta, Block: blocking})
}

// Rest puts the robot in its rest posture and releases stiffness.
func (c *Client) Rest(ctx context.Context, blocking bool) error {
	return c.post(ctx, "autonomous/rest", blockRequest{Block: blocking})
}

// TrackFace enables face tracking.
func (c *Client) TrackFace(ctx context.Context, blocking bool) error {
	return c.post(ctx, "motion/track_face", blockRequest{Block: blocking})
}

// SetLED switches an LED group on or off.
func (c *Client) SetLED(ctx context.Context, group string, on bool, blocking bool) error {
	return c.post(ctx, "leds/set", ledRequest{Group: group, On: on, Block: blocking})
}

// FadeRGB fades an LED group to a color.
func (c *Client) FadeRGB(ctx context.Context, group string, r, g, b float64, duration time.Duration, blocking bool) error {
	return c.post(ctx, "leds/fade_rgb", fadeRequest{
		Group:    group,
		R:        r,
		G:        g,
		B:        b,
		Duration: duration.Seconds(),
		Block:    blocking,
	})
}

// Play plays PCM16 mono audio through the robot speaker.
func (c *Client) Play(ctx context.Context, pcm []byte, sampleRate int, blocking bool) error {
	return c.post(ctx, "audio/play", playRequest{PCM: pcm, SampleRate: sampleRate, Block: blocking})
}

// Status returns the bridge and robot status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	err := c.call(ctx, "status",
		func(ctx context.Context) (*http.Response, error) {
			return httpc.Get(ctx, c.http, c.baseURL+"/api/status")
		},
		func(resp *http.Response) error {
			return json.NewDecoder(resp.Body).Decode(&status)
		})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}

// post sends a command.
func (c *Client) post(ctx context.Context, op string, body any) error {
	start := time.Now()
	err := c.call(ctx, op,
		func(ctx context.Context) (*http.Response, error) {
			return httpc.PostJSON(ctx, c.http, c.baseURL+"/api/"+op, body)
		},
		func(resp *http.Response) error {
			_, err := io.Copy(io.Discard, resp.Body)
			return err
		})

	switch {
	case err == nil:
		c.logger.Debug("command done", "op", op, "took", time.Since(start))
	case action.IsTransport(err):
		c.logger.Error("bridge unreachable", "op", op, "error", err)
	case IsTimeout(err):
		c.logger.Warn("bridge did not answer in time", "op", op, "took", time.Since(start), "error", err)
	default:
		c.logger.Warn("bridge rejected command", "op", op, "error", err)
	}
	return err
}

// call runs one request through the circuit breaker. Only failures to reach
// the bridge count against the breaker and become action.TransportError. A
// bridge that answers is healthy even if it rejects the request (*APIError),
// and one that accepted the request but did not answer in time is busy
// rather than gone (*TimeoutError).
func (c *Client) call(ctx context.Context, op string, send func(context.Context) (*http.Response, error), read func(*http.Response) error) error {
	var opErr error

	_, err := c.cb.Execute(func() (interface{}, error) {
		tctx, trace := httpc.WithConnTrace(ctx)
		resp, err := send(tctx)
		if err != nil {
			if trace.Connected() && httpc.IsTimeout(err) {
				opErr = &TimeoutError{Op: op, Err: err}
				return nil, nil
			}
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			opErr = newAPIError(op, resp)
			return nil, nil
		}
		if err := read(resp); err != nil {
			if httpc.IsTimeout(err) {
				opErr = &TimeoutError{Op: op, Err: err}
			} else {
				opErr = fmt.Errorf("naoqi: %s: read response: %w", op, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return action.NewTransportError(op, err)
	}
	return opErr
}

var _ action.Robot = (*Client)(nil)

func (c *Client) String() string {
	return fmt.Sprintf("naoqi.Client(%s)", c.baseURL)
}
