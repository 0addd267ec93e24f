package errors

import (
	stderrors "errors"
	"fmt"
)

// FoodLogError is the base error type for all application errors
type FoodLogError struct {
	Message  string        // Human-readable error message
	Kind     Kind          // Classification used for HTTP status and metrics
	Context  *ErrorContext // Rich error context
	Cause    error         // Underlying error (for wrapping)
	ExitCode ExitCode      // Exit code for CLI
}

// Error returns the error message with cause if present
func (e *FoodLogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *FoodLogError) Unwrap() error {
	return e.Cause
}

// Base exposes the embedded base error through the typed wrappers.
func (e *FoodLogError) Base() *FoodLogError {
	return e
}

// GetUserMessage returns a user-friendly error message with context
func (e *FoodLogError) GetUserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)

	if e.Cause != nil {
		msg += fmt.Sprintf("\nCause: %v", e.Cause)
	}

	if e.Context != nil {
		msg += e.Context.Format()
	}

	return msg
}

// classified is satisfied by FoodLogError and every wrapper embedding it
type classified interface {
	error
	Base() *FoodLogError
}

// NewError creates a new FoodLogError with the given message and kind
func NewError(message string, kind Kind) *FoodLogError {
	return &FoodLogError{
		Message:  message,
		Kind:     kind,
		ExitCode: kind.ExitCode(),
	}
}

// WrapError wraps an existing error with additional context
func WrapError(cause error, message string, kind Kind) *FoodLogError {
	return &FoodLogError{
		Message:  message,
		Kind:     kind,
		Cause:    cause,
		ExitCode: kind.ExitCode(),
	}
}

// WrapErrorWithContext wraps an error with full context
func WrapErrorWithContext(cause error, message string, kind Kind, context *ErrorContext) *FoodLogError {
	return &FoodLogError{
		Message:  message,
		Kind:     kind,
		Context:  context,
		Cause:    cause,
		ExitCode: kind.ExitCode(),
	}
}

// AsFoodLogError finds the outermost application error in err's chain
func AsFoodLogError(err error) (*FoodLogError, bool) {
	var c classified
	if stderrors.As(err, &c) {
		return c.Base(), true
	}
	return nil, false
}

// KindOf returns the kind of the first application error in err's chain,
// or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if base, ok := AsFoodLogError(err); ok {
		return base.Kind
	}
	return KindInternal
}

// StageOf returns the pipeline stage recorded on err, or "" if none was recorded
func StageOf(err error) Stage {
	base, ok := AsFoodLogError(err)
	if !ok || base.Context == nil {
		return ""
	}
	return Stage(base.Context.Component)
}

// HTTPStatus maps err to the status code returned to API clients
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}

// IsRetryable reports whether err is a transient failure worth another attempt
func IsRetryable(err error) bool {
	base, ok := AsFoodLogError(err)
	if !ok {
		return false
	}
	return base.Context != nil && base.Context.Recoverable
}

// ExitCodeOf returns the CLI exit code for err
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if base, ok := AsFoodLogError(err); ok {
		return base.ExitCode
	}
	return ExitGeneralError
}
