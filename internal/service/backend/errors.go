package backend

import "fmt"

// Kind classifies a failed backend call.
type Kind string

const (
	// KindNetwork means the request never produced a response.
	KindNetwork Kind = "network"
	// KindProtocol means the backend answered with a non-2xx status.
	KindProtocol Kind = "protocol"
	// KindMalformed means a 2xx body could not be decoded.
	KindMalformed Kind = "malformed"
)

// Error is returned by every Client call that fails. Body holds the
// (truncated) response text of protocol failures for diagnostics.
type Error struct {
	Op        string
	Kind      Kind
	Status    int
	Body      string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Kind == KindProtocol:
		return fmt.Sprintf("backend: %s: HTTP %d: %s", e.Op, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("backend: %s: %s failure: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("backend: %s: %s failure", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode returns the response status, or 0 when none was received.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}
