package platform

import (
	"errors"
	"fmt"
)

// ErrAlreadyExists reports a resource the platform refused to create twice,
// such as the demo knowledge source (HTTP 409).
var ErrAlreadyExists = errors.New("resource already exists")

// RejectedError is a non-2xx response from the platform. The body is kept
// verbatim for diagnostics. Rejections are not retried.
type RejectedError struct {
	Op     string
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s rejected: HTTP %d: %s", e.Op, e.Status, body)
}

// UnavailableError wraps a network or timeout failure that persisted after
// the bounded retries were exhausted.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
