package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"protocol", New(ErrorTypeProtocol, "unknown command", nil), IsProtocol},
		{"framing", New(ErrorTypeFraming, "bad prefix", nil), IsFraming},
		{"key exists", New(ErrorTypeKeyExists, "a already exists", nil), IsKeyExists},
		{"key missing", New(ErrorTypeKeyMissing, "a does not exist", nil), IsKeyMissing},
		{"connection", New(ErrorTypeConnection, "read failed", io.ErrUnexpectedEOF), IsConnection},
		{"internal", New(ErrorTypeInternal, "boom", nil), IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(stderrors.New("plain")))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeConnection, "read failed", io.ErrUnexpectedEOF)
	assert.Equal(t, "CONNECTION: read failed (unexpected EOF)", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotEmpty(t, err.Stack)

	assert.Equal(t, "PROTOCOL: unknown command", New(ErrorTypeProtocol, "unknown command", nil).Error())
}

func TestRecoverError(t *testing.T) {
	assert.Nil(t, RecoverError(nil))

	err := RecoverError("kaboom")
	assert.True(t, IsInternal(err))
	assert.Contains(t, err.Error(), "kaboom")

	err = RecoverError(io.EOF)
	assert.ErrorIs(t, err, io.EOF)

	err = RecoverError(42)
	assert.Contains(t, err.Error(), "42")
}
