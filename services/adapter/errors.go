package adapter

import "fmt"

// Error is the failure type adapter implementations return. Transient
// failures may be retried by the retry decorator; permanent failures
// (rejected bookings, bad requests) surface immediately.
type Error struct {
	Transient bool
	Message   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("adapter error: %s", e.Message)
}

// NewTransientError builds a retryable adapter error.
func NewTransientError(format string, args ...interface{}) *Error {
	return &Error{Transient: true, Message: fmt.Sprintf(format, args...)}
}

// NewPermanentError builds a non-retryable adapter error.
func NewPermanentError(format string, args ...interface{}) *Error {
	return &Error{Transient: false, Message: fmt.Sprintf(format, args...)}
}
