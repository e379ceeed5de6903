package httpclient

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode reports a structured body that could not be parsed in its detected format.
	ErrDecode = errors.New("decode response body")
	// ErrInvalidArgument reports a save target that cannot be created or written.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidContent reports a body rejected by the media content heuristic on save.
	ErrInvalidContent = errors.New("invalid media response content")
)

// TransportError wraps a failure raised by the underlying HTTP transport.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
