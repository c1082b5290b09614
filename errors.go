package cellchar

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include configuration errors, file not found, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// CharFailureError represents failed arcs in a characterization run (exit code 1)
type CharFailureError struct {
	Message string
}

func (e *CharFailureError) Error() string {
	return fmt.Sprintf("characterization failure: %s", e.Message)
}

// NewCharFailureError creates a new CharFailureError
func NewCharFailureError(message string) *CharFailureError {
	return &CharFailureError{Message: message}
}

// IsCharFailureError checks if the error is or wraps a CharFailureError
func IsCharFailureError(err error) bool {
	var charErr *CharFailureError
	return err != nil && errors.As(err, &charErr)
}
