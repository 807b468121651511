package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// InvalidStateError indicates an operation was attempted against a
	// document in a state that forbids it. It carries both the attempted
	// operation and the evaluated permission result.
	InvalidStateError struct {
		Operation string
		Reason    string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *InvalidStateError) Error() string {
	return e.Operation + ": " + e.Reason
}

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *InvalidStateError) StatusCode() int { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid document state")
	ErrUnsupported  = errors.New("unsupported operation")
)

// Is allows errors.Is() to match against the sentinels.
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
