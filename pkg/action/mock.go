package action

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock implements Robot for testing.
// Every port method is recorded; failures can be injected via FailFunc.
type Mock struct {
	// FailFunc is consulted on every call. A non-nil return value is
	// returned from the port method. If nil, every call succeeds.
	FailFunc func(call MockCall) error

	// PanicOn makes calls to the named method panic.
	PanicOn string

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a port invocation for verification.
type MockCall struct {
	Channel  Channel
	Method   string
	Arg      string
	Blocking bool
	Time     time.Time
}

// NewMock creates a mock robot where every call succeeds.
func NewMock() *Mock {
	return &Mock{}
}

// Say implements SpeechPort.
func (m *Mock) Say(ctx context.Context, text string, blocking bool) error {
	return m.record(ChannelSpeech, "Say", text, blocking)
}

// Posture implements MotionPort.
func (m *Mock) Posture(ctx context.Context, name string, speed float64, blocking bool) error {
	return m.record(ChannelMotion, "Posture", fmt.Sprintf("%s@%.2f", name, speed), blocking)
}

// Animate implements MotionPort.
func (m *Mock) Animate(ctx context.Context, id string, blocking bool) error {
	return m.record(ChannelMotion, "Animate", id, blocking)
}

// Move implements MotionPort.
func (m *Mock) Move(ctx context.Context, dx, dy, dtheta float64, blocking bool) error {
	return m.record(ChannelMotion, "Move", fmt.Sprintf("%.2f,%.2f,%.2f", dx, dy, dtheta), blocking)
}

// Rest implements MotionPort.
func (m *Mock) Rest(ctx context.Context, blocking bool) error {
	return m.record(ChannelMotion, "Rest", "", blocking)
}

// TrackFace implements MotionPort.
func (m *Mock) TrackFace(ctx context.Context, blocking bool) error {
	return m.record(ChannelMotion, "TrackFace", "", blocking)
}

// SetLED implements LEDPort.
func (m *Mock) SetLED(ctx context.Context, group string, on bool, blocking bool) error {
	return m.record(ChannelLEDs, "SetLED", fmt.Sprintf("%s=%t", group, on), blocking)
}

// FadeRGB implements LEDPort.
func (m *Mock) FadeRGB(ctx context.Context, group string, r, g, b float64, duration time.Duration, blocking bool) error {
	return m.record(ChannelLEDs, "FadeRGB", fmt.Sprintf("%s=%.2f,%.2f,%.2f/%s", group, r, g, b, duration), blocking)
}

// Play implements AudioPort.
func (m *Mock) Play(ctx context.Context, pcm []byte, sampleRate int, blocking bool) error {
	return m.record(ChannelAudio, "Play", fmt.Sprintf("%d@%d", len(pcm), sampleRate), blocking)
}

func (m *Mock) record(ch Channel, method, arg string, blocking bool) error {
	call := MockCall{
		Channel:  ch,
		Method:   method,
		Arg:      arg,
		Blocking: blocking,
		Time:     time.Now(),
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	fail := m.FailFunc
	panicOn := m.PanicOn
	m.mu.Unlock()

	if panicOn == method {
		panic("mock: " + method + " exploded")
	}
	if fail != nil {
		return fail(call)
	}
	return nil
}

// Calls returns all recorded calls in order.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// Methods returns the recorded method names in order.
func (m *Mock) Methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.calls))
	for i, c := range m.calls {
		names[i] = c.Method
	}
	return names
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// FailMethod returns a FailFunc that fails every call to method with err.
func FailMethod(method string, err error) func(MockCall) error {
	return func(c MockCall) error {
		if c.Method == method {
			return err
		}
		return nil
	}
}

// Verify Mock implements Robot at compile time.
var _ Robot = (*Mock)(nil)
