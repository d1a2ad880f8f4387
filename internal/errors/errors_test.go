//nolint:revive // Package name matches the package it tests
package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	assert.NotEqual(t, ErrValidation, ErrUnknownBoard)
	assert.NotEqual(t, ErrValidation, ErrNotFound)
	assert.NotEqual(t, ErrUnknownChannel, ErrEnvironment)
}

func TestDetailErrorError(t *testing.T) {
	detail := &DetailError{
		Type:     "validation failed",
		Message:  "invalid value",
		Location: "/etc/dispatch/config.yaml",
		Field:    "listen",
		Context:  map[string]string{"Channel": "lts", "Board": "WhiteFox"},
		Hint:     "Use host:port",
	}

	output := detail.Error()

	assert.Contains(t, output, "Error: validation failed")
	assert.Contains(t, output, "Location: /etc/dispatch/config.yaml")
	assert.Contains(t, output, "Field: listen")
	assert.Contains(t, output, "Board: WhiteFox\n  Channel: lts")
	assert.Contains(t, output, "invalid value")
	assert.Contains(t, output, "Hint: Use host:port")
}

func TestDetailErrorUnwrap(t *testing.T) {
	detail := &DetailError{
		Type:    "test",
		Message: "test message",
		Cause:   ErrValidation,
	}

	assert.True(t, errors.Is(detail, ErrValidation))
	assert.Equal(t, ErrValidation, detail.Unwrap())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("invalid value", "config.yaml", "listen", "Use host:port")

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "validation failed", detail.Type)
	assert.Equal(t, "listen", detail.Field)
}

func TestNewEnvironmentError(t *testing.T) {
	err := NewEnvironmentError("docker-compose not found", map[string]string{"Command": "docker-compose"}, "")
	assert.True(t, errors.Is(err, ErrEnvironment))
	assert.False(t, IsClientError(err))
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrValidation, "header check failed")

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.Contains(t, wrapped.Error(), "header check failed")
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrNotFound, fs.ErrNotExist, "base layout %s", "MD1-Standard")

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, fs.ErrNotExist))
	assert.Contains(t, wrapped.Error(), "base layout MD1-Standard")
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrValidation, "x"), true},
		{Wrap(ErrUnknownBoard, "x"), true},
		{Wrap(ErrUnknownChannel, "x"), true},
		{Wrap(ErrNotFound, "x"), true},
		{Wrap(ErrEnvironment, "x"), false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsClientError(tt.err), tt.err.Error())
	}
}
