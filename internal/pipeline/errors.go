package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoAdapterAvailable matches every *NoAdapterError.
	ErrNoAdapterAvailable = errors.New("no adapter available")

	// ErrInvalidRequest wraps the Validate failure of a request handed to
	// Forward.
	ErrInvalidRequest = errors.New("invalid request")
)

// NoAdapterError reports that no candidate served the request. Last holds
// the final attempt's error, if any attempt was made.
type NoAdapterError struct {
	Attempts []string
	Last     error
	Reason   string
}

func (e *NoAdapterError) Error() string {
	switch {
	case e.Last != nil && len(e.Attempts) > 0:
		return fmt.Sprintf("%s after trying %s: %v", ErrNoAdapterAvailable, strings.Join(e.Attempts, ", "), e.Last)
	case e.Last != nil:
		return fmt.Sprintf("%s: %v", ErrNoAdapterAvailable, e.Last)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", ErrNoAdapterAvailable, e.Reason)
	default:
		return fmt.Sprintf("%s: no adapters registered", ErrNoAdapterAvailable)
	}
}

func (e *NoAdapterError) Is(target error) bool { return target == ErrNoAdapterAvailable }

func (e *NoAdapterError) Unwrap() error { return e.Last }
