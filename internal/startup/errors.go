package startup

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by ConfigError.
var (
	ErrMissing      = errors.New("not provided")
	ErrNotDirectory = errors.New("not a directory")
	ErrNotFile      = errors.New("not a regular file")
	ErrNotWritable  = errors.New("not writable by the current user")
	ErrInvalid      = errors.New("invalid value")
)

// ConfigError reports a configuration problem that must stop the process
// before any scanning or querying starts.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErr(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Err: err}
}
