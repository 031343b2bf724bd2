package config

import (
	"errors"
	"fmt"
)

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Message)
}

// IsConfigError returns true if err is a configuration validation error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
