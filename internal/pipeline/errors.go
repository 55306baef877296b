package pipeline

import (
	"errors"
	"fmt"
)

// ConfigurationError marks invalid input detected before any stage runs.
// It is fatal and never retried.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err originates from input validation.
func IsConfiguration(err error) bool {
	var cfg *ConfigurationError
	return errors.As(err, &cfg)
}
