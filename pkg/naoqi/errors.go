package naoqi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrMissingBaseURL indicates no bridge URL was configured.
	ErrMissingBaseURL = errors.New("naoqi: base URL is required")

	// ErrInvalidBaseURL indicates the bridge URL is not http(s).
	ErrInvalidBaseURL = errors.New("naoqi: base URL must start with http:// or https://")

	// ErrInvalidTimeout indicates a non-positive request timeout.
	ErrInvalidTimeout = errors.New("naoqi: timeout must be positive")
)

// APIError is returned when the bridge rejects a command.
type APIError struct {
	// Op is the endpoint, e.g. "motion/animation".
	Op string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the bridge's error text.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("naoqi: %s failed (HTTP %d): %s", e.Op, e.StatusCode, e.Message)
}

// IsAPIError returns true if err is a bridge rejection.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// TimeoutError is returned when the bridge accepted a request but did not
// answer in time. The robot may still be executing the command.
type TimeoutError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("naoqi: %s did not answer in time: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if err is a bridge that stopped answering a
// request it had accepted.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

func newAPIError(op string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := strings.TrimSpace(string(body))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
