package dialogue

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-nao/pkg/intent"
)

// Dialogflow CX defaults.
const (
	DefaultLocation   = "global"
	DefaultLanguage   = "en"
	DefaultSampleRate = 16000

	// CloudPlatformScope is the OAuth scope used for Dialogflow.
	CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Config holds settings shared by the backends. Each constructor reads the
// fields it needs.
type Config struct {
	// Dialogflow
	ProjectID       string
	AgentID         string
	Location        string
	Language        string
	SampleRate      int
	CredentialsJSON []byte
	// Endpoint overrides the regional API endpoint.
	Endpoint string
	// NoAuth disables credentials, for local fakes.
	NoAuth     bool
	HTTPClient *http.Client
	Listener   Listener

	// Service
	ServiceURL     string
	RequestTimeout time.Duration

	StreamBuffer int
	Logger       *slog.Logger
}

// DefaultConfig returns the default backend settings.
func DefaultConfig() Config {
	return Config{
		Location:     DefaultLocation,
		Language:     DefaultLanguage,
		SampleRate:   DefaultSampleRate,
		StreamBuffer: intent.DefaultStreamBuffer,
		Logger:       slog.Default(),
	}
}

// Option configures a backend.
type Option func(*Config)

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithAgent sets the Dialogflow project, location and agent.
// An empty project is taken from the credentials.
func WithAgent(projectID, location, agentID string) Option {
	return func(c *Config) {
		c.ProjectID = projectID
		if location != "" {
			c.Location = location
		}
		c.AgentID = agentID
	}
}

// WithLanguage sets the query language code.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		if lang != "" {
			c.Language = lang
		}
	}
}

// WithSampleRate sets the sample rate of audio utterances.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		if rate > 0 {
			c.SampleRate = rate
		}
	}
}

// WithCredentialsJSON sets the service account key.
func WithCredentialsJSON(b []byte) Option {
	return func(c *Config) {
		c.CredentialsJSON = b
	}
}

// WithEndpoint overrides the API endpoint.
func WithEndpoint(url string) Option {
	return func(c *Config) {
		c.Endpoint = url
	}
}

// WithoutAuth disables credentials.
func WithoutAuth() Option {
	return func(c *Config) {
		c.NoAuth = true
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
	}
}

// WithListener sets the utterance source.
func WithListener(l Listener) Option {
	return func(c *Config) {
		c.Listener = l
	}
}

// WithServiceURL sets the dialogue service WebSocket URL.
func WithServiceURL(url string) Option {
	return func(c *Config) {
		c.ServiceURL = url
	}
}

// WithRequestTimeout bounds one detect_intent round trip on the service
// backend. Zero waits indefinitely.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithStreamBuffer sets the notice stream buffer size.
func WithStreamBuffer(n int) Option {
	return func(c *Config) {
		c.StreamBuffer = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}
