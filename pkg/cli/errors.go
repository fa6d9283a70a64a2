package cli

import (
	"errors"
	"fmt"
)

// ErrSilent marks an error whose details the command already printed.
// The binary exits non-zero without printing it again.
var ErrSilent = errors.New("silent failure")

// ConfigError represents an invalid flag or argument value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// Silent wraps err so that it is reported by exit status only.
func Silent(err error) error {
	return fmt.Errorf("%w: %w", ErrSilent, err)
}
