package submission

import "fmt"

// StoreError wraps any persistence-backend failure. It always propagates
// to the caller; a point-lookup miss is a nil record, never a StoreError.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotificationError wraps an email delivery failure after retries were
// exhausted or the error was classified non-retryable. It is returned for
// critical sends only; non-critical send failures are logged and dropped.
type NotificationError struct {
	Kind string // e.g. "contact-confirmation"
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s: %v", e.Kind, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// StatusError carries an HTTP-like status code from an external gateway.
// Adapters attach it at the boundary so retry classification never has to
// inspect raw SDK error shapes.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", e.Code, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusCode implements the classifier contract in internal/pkg/retry.
func (e *StatusError) StatusCode() int { return e.Code }
