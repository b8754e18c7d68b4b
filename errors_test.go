package alembic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := NewError("SOME_CODE", "something failed", nil)

	assert.Equal(t, "SOME_CODE: something failed", err.Error())
}

func TestError_MessageWithCause(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError("SOME_CODE", "something failed", cause)

	assert.Equal(t, "SOME_CODE: something failed: root cause", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := ErrServiceNotFound("*pkg.Widget")
	b := ErrServiceNotFound("*pkg.Other")

	assert.ErrorIs(t, a, b)
	assert.ErrorIs(t, a, ErrServiceNotFoundSentinel)
	assert.NotErrorIs(t, a, ErrScopeEnded)
}

func TestError_IsThroughWrapping(t *testing.T) {
	inner := ErrCircularDependency([]string{"a", "b"})
	wrapped := NewServiceError("a", "resolve", inner)
	again := fmt.Errorf("request failed: %w", wrapped)

	assert.ErrorIs(t, again, ErrCircularDependencySentinel)
	assert.ErrorIs(t, again, wrapped)
}

func TestError_WithContext(t *testing.T) {
	err := NewError("SOME_CODE", "failed", nil).
		WithContext("service", "db").
		WithContext("attempt", 3)

	assert.Equal(t, "db", err.Context["service"])
	assert.Equal(t, 3, err.Context["attempt"])
}

func TestNewServiceError_Context(t *testing.T) {
	cause := errors.New("timeout")
	err := NewServiceError("*pkg.DB", "resolve", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "*pkg.DB", err.Context["service"])
	assert.Equal(t, "resolve", err.Context["operation"])
	assert.Contains(t, err.Error(), "during resolve")
}

func TestErrTypeMismatch(t *testing.T) {
	err := ErrTypeMismatch("*pkg.Widget", 42)

	assert.ErrorIs(t, err, ErrTypeMismatchSentinel)
	assert.Contains(t, err.Error(), "got int")
}
