package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a payload that violates its structural contract.
	ErrValidation = errors.New("validation failed")
	// ErrTransport signals a network failure or a non-success HTTP status.
	ErrTransport = errors.New("transport failure")
	// ErrUserInput signals input the user typed that could not be parsed at all.
	ErrUserInput = errors.New("invalid input")
)

// ValidationError describes the first violated constraint of a payload.
type ValidationError struct {
	// Path locates the offending value, e.g. "[1].grant_name". Empty for the root.
	Path   string
	Reason string
}

// NewValidation creates a validation error for the value at path.
func NewValidation(path, reason string) error {
	return &ValidationError{Path: path, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransportError wraps a failed remote call.
type TransportError struct {
	Op string
	// StatusCode is zero when the request never produced a response.
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// UserInputError wraps input that failed before schema validation could run (e.g. malformed JSON).
type UserInputError struct {
	Reason string
	Err    error
}

// NewUserInput creates a user input error.
func NewUserInput(reason string, err error) error {
	return &UserInputError{Reason: reason, Err: err}
}

func (e *UserInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrUserInput.Error(), e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrUserInput.Error(), e.Reason)
}

// Is matches ErrUserInput.
func (e *UserInputError) Is(target error) bool { return target == ErrUserInput }

func (e *UserInputError) Unwrap() error { return e.Err }
