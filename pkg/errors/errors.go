package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeClientError ErrorType = "client_error"
	ErrorTypeDecode      ErrorType = "decode"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a fetch or decode failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates an Error of the given type around err
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}

// FromStatusCode maps an unexpected HTTP status to a typed error
func FromStatusCode(code int, url string) *Error {
	msg := fmt.Sprintf("unexpected status %q for %s", http.StatusText(code), url)

	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return &Error{Type: ErrorTypeNotFound, Message: msg, Code: code}
	case code >= 500:
		return &Error{Type: ErrorTypeServerError, Message: msg, Code: code}
	case code >= 400:
		return &Error{Type: ErrorTypeClientError, Message: msg, Code: code}
	default:
		return &Error{Type: ErrorTypeUnknown, Message: msg, Code: code}
	}
}

// TypeOf reports the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given ErrorType
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}
