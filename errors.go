package alembic

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeInvalidFactory indicates a factory function is invalid or nil
	CodeInvalidFactory = "INVALID_FACTORY"

	// CodeServiceAlreadyExists indicates a service is already registered
	CodeServiceAlreadyExists = "SERVICE_ALREADY_EXISTS"

	// CodeServiceNotFound indicates a service was not found in the container
	CodeServiceNotFound = "SERVICE_NOT_FOUND"

	// CodeServiceError indicates an error occurred during service operation
	CodeServiceError = "SERVICE_ERROR"

	// CodeCircularDependency indicates a circular dependency was detected
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"

	// CodeScopeEnded indicates operation on an ended scope
	CodeScopeEnded = "SCOPE_ENDED"

	// CodeTypeMismatch indicates a type mismatch during service resolution
	CodeTypeMismatch = "TYPE_MISMATCH"
)

// Error is a coded error with an optional cause and diagnostic context.
type Error struct {
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

// NewError creates a coded error.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so sentinel comparisons via errors.Is work
// across constructed instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return e.Code == t.Code
}

// WithContext attaches a diagnostic key-value pair and returns the error.
func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value

	return e
}

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrInvalidFactory is returned when a nil or invalid factory is provided.
var ErrInvalidFactory = NewError(CodeInvalidFactory, "factory cannot be nil", nil)

// ErrServiceNotFoundSentinel is a sentinel error for service not found (for error checking).
var ErrServiceNotFoundSentinel = NewError(CodeServiceNotFound, "service not found", nil)

// ErrCircularDependencySentinel is a sentinel error for circular dependency (for error checking).
var ErrCircularDependencySentinel = NewError(CodeCircularDependency, "circular dependency", nil)

// ErrScopeEnded is returned when operations are attempted on an ended scope.
var ErrScopeEnded = NewError(CodeScopeEnded, "scope has ended", nil)

// ErrTypeMismatchSentinel is a sentinel error for type mismatch during resolution.
var ErrTypeMismatchSentinel = NewError(CodeTypeMismatch, "type mismatch", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrServiceAlreadyExists creates an error for when a service is already registered
func ErrServiceAlreadyExists(key string) *Error {
	return NewError(
		CodeServiceAlreadyExists,
		fmt.Sprintf("service '%s' already exists", key),
		nil,
	).WithContext("service", key)
}

// ErrServiceNotFound creates an error for when a service is not found
func ErrServiceNotFound(key string) *Error {
	return NewError(
		CodeServiceNotFound,
		fmt.Sprintf("service '%s' not found", key),
		nil,
	).WithContext("service", key)
}

// NewServiceError creates an error for service operations
func NewServiceError(key, operation string, cause error) *Error {
	return NewError(
		CodeServiceError,
		fmt.Sprintf("service '%s' error during %s", key, operation),
		cause,
	).WithContext("service", key).
		WithContext("operation", operation)
}

// ErrCircularDependency creates an error for circular dependency detection
func ErrCircularDependency(cycle []string) *Error {
	return NewError(
		CodeCircularDependency,
		fmt.Sprintf("circular dependency detected: %v", cycle),
		nil,
	).WithContext("cycle", cycle)
}

// ErrTypeMismatch creates an error for type mismatch during resolution
func ErrTypeMismatch(key string, actual any) *Error {
	return NewError(
		CodeTypeMismatch,
		fmt.Sprintf("service '%s' type mismatch: got %T", key, actual),
		nil,
	).WithContext("service", key).
		WithContext("actual_type", fmt.Sprintf("%T", actual))
}
