package channels

import (
	"errors"
	"fmt"
)

// Registry errors that can be checked with errors.Is().
var (
	// ErrDuplicateName is returned when inserting a channel whose name is taken.
	ErrDuplicateName = errors.New("duplicate channel name")

	// ErrNotFound is returned when a named channel does not exist.
	ErrNotFound = errors.New("channel not found")

	// ErrInvalidChannel is returned when a channel record fails validation.
	ErrInvalidChannel = errors.New("invalid channel")
)

// DuplicateNameError is returned by Insert when the name already exists.
type DuplicateNameError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("channel %q already exists", e.Name)
}

// Is implements error matching for errors.Is().
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// NotFoundError is returned when a named channel does not exist.
type NotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("channel %q not found", e.Name)
}

// Is implements error matching for errors.Is().
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidChannelError describes a channel record that fails validation.
type InvalidChannelError struct {
	Name    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("channel %q: %s %s", e.Name, e.Field, e.Message)
}

// Is implements error matching for errors.Is().
func (e *InvalidChannelError) Is(target error) bool {
	return target == ErrInvalidChannel
}
