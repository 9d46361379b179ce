package upstream

import "fmt"

// TransportError is a failed Process call against one adapter.
type TransportError struct {
	AdapterID string
	Endpoint  string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("adapter %s at %s: %v", e.AdapterID, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
