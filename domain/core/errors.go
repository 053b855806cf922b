package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound          = errors.New("resource not found")
	ErrRunNotFound       = fmt.Errorf("%w: run", ErrNotFound)
	ErrRecordingNotFound = fmt.Errorf("%w: recording", ErrNotFound)

	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewNotFoundError builds a not-found error with resource context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err is a not-found condition
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
