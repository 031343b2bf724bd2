package naoqi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config holds bridge client settings.
type Config struct {
	// BaseURL is the bridge root, e.g. "http://10.0.0.181:8000".
	BaseURL string

	// Timeout bounds each request, including blocking commands.
	Timeout time.Duration

	// BreakerFailures is the number of consecutive connection failures
	// that opens the circuit.
	BreakerFailures uint32

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// HTTPClient overrides the HTTP client. Timeout is ignored when set.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// DefaultConfig returns the default client settings.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  10 * time.Second,
		Logger:          slog.Default(),
	}
}

// Option configures the client.
type Option func(*Config)

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return ErrInvalidBaseURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 1
	}
	return nil
}

// WithBaseURL sets the bridge root URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithBreaker configures the circuit breaker.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(c *Config) {
		c.BreakerFailures = failures
		c.BreakerTimeout = openFor
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = hc
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
