// Package errors provides error types and handling for studioctl.
// It includes custom error types with process exit codes and error codes.
package errors

import (
	"errors"
	"fmt"
)

// AppError represents an application error with an associated exit code.
type AppError struct {
	// Code is an optional error code string for programmatic handling
	Code string
	// Message is a user-friendly error message
	Message string
	// ExitCode is the process exit code the error maps to
	ExitCode int
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Predefined error codes.
const (
	ErrCodeMissingPrerequisite = "MISSING_PREREQUISITE"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeProviderFailure     = "PROVIDER_FAILURE"
	ErrCodeDeclined            = "DECLINED"
)

// ErrMissingPrerequisite creates an error for absent ambient state, such as
// no configured project. Fatal with exit code 1.
func ErrMissingPrerequisite(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeMissingPrerequisite,
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

// ErrInvalidInput creates an error for operator input that cannot be
// accepted, such as an unrecognized deployment mode. Fatal with exit code 1.
func ErrInvalidInput(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeInvalidInput,
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

// ErrProvider creates an error for a failed control-plane operation. Fatal
// with exit code 1; no cleanup of earlier phases is attempted.
func ErrProvider(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeProviderFailure,
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

// ErrDeclined creates the error returned when the operator declines a
// confirmation gate that ends the run cleanly. Exit code 0.
func ErrDeclined(message string) *AppError {
	return &AppError{
		Code:     ErrCodeDeclined,
		Message:  message,
		ExitCode: 0,
	}
}

// ExitCode extracts the process exit code from an error.
// Returns 0 for nil and 1 for errors that are not AppErrors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}
	return 1
}

// IsDeclined reports whether the error is a clean operator decline.
func IsDeclined(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeDeclined
	}
	return false
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
