package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeProtocol indicates a request whose command could not be decoded
	ErrorTypeProtocol ErrorType = "PROTOCOL"
	// ErrorTypeFraming indicates a frame whose length prefix is invalid
	ErrorTypeFraming ErrorType = "FRAMING"
	// ErrorTypeKeyExists indicates a PUT on a key that is already present
	ErrorTypeKeyExists ErrorType = "KEY_EXISTS"
	// ErrorTypeKeyMissing indicates a GET or READ on an absent key
	ErrorTypeKeyMissing ErrorType = "KEY_MISSING"
	// ErrorTypeConnection indicates the peer went away or I/O failed
	ErrorTypeConnection ErrorType = "CONNECTION"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// TSError represents a tuple space error with additional context
type TSError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   string
}

// Error implements the error interface
func (e *TSError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *TSError) Unwrap() error {
	return e.Err
}

// New creates a new TSError
func New(errType ErrorType, message string, err error) *TSError {
	_, file, line, _ := runtime.Caller(1)
	stack := fmt.Sprintf("%s:%d", file, line)

	return &TSError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// TypeOf returns the ErrorType carried by err, or "" if err is not a TSError.
func TypeOf(err error) ErrorType {
	var tsErr *TSError
	if stderrors.As(err, &tsErr) {
		return tsErr.Type
	}
	return ""
}

// IsProtocol checks if the error is a protocol error
func IsProtocol(err error) bool {
	return TypeOf(err) == ErrorTypeProtocol
}

// IsFraming checks if the error is a framing error
func IsFraming(err error) bool {
	return TypeOf(err) == ErrorTypeFraming
}

// IsKeyExists checks if the error is a key exists error
func IsKeyExists(err error) bool {
	return TypeOf(err) == ErrorTypeKeyExists
}

// IsKeyMissing checks if the error is a key missing error
func IsKeyMissing(err error) bool {
	return TypeOf(err) == ErrorTypeKeyMissing
}

// IsConnection checks if the error is a connection error
func IsConnection(err error) bool {
	return TypeOf(err) == ErrorTypeConnection
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return TypeOf(err) == ErrorTypeInternal
}

// RecoverError recovers from a panic and converts it to a TSError
func RecoverError(r interface{}) error {
	if r == nil {
		return nil
	}

	var err error
	switch v := r.(type) {
	case error:
		err = v
	case string:
		err = fmt.Errorf("%s", v)
	default:
		err = fmt.Errorf("%v", v)
	}

	return New(ErrorTypeInternal, "recovered from panic", err)
}
