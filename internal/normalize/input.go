package normalize

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedIngress means the body matched no supported request shape.
	ErrMalformedIngress = errors.New("malformed ingress")

	// ErrValidationFailed means the body decoded but the request is unusable.
	ErrValidationFailed = errors.New("validation failed")
)

// Error is a normalization failure carrying the HTTP status the front door
// should answer with. Err is ErrMalformedIngress or ErrValidationFailed,
// optionally wrapping the decoder's cause.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func malformed(message string, cause error) *Error {
	err := ErrMalformedIngress
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedIngress, cause)
	}
	return &Error{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

func invalid(message string, cause error) *Error {
	err := ErrValidationFailed
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrValidationFailed, cause)
	}
	return &Error{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}
