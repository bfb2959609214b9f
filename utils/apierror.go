package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies gateway errors so handlers can map them to HTTP
// statuses and callers can branch on the failure class.
type ErrorKind string

const (
	KindValidation         ErrorKind = "ValidationError"
	KindNotFound           ErrorKind = "NotFound"
	KindForbidden          ErrorKind = "Forbidden"
	KindRateLimited        ErrorKind = "RateLimited"
	KindConflict           ErrorKind = "Conflict"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
	KindAdapterError       ErrorKind = "AdapterError"
	KindNegotiationExpired ErrorKind = "NegotiationExpired"
	KindRoundLimitExceeded ErrorKind = "RoundLimitExceeded"
)

// APIError is the structured error surfaced on the gateway wire contract.
type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError builds an APIError with a formatted message.
func NewAPIError(kind ErrorKind, format string, args ...interface{}) *APIError {
	return &APIError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapAPIError attaches a cause to an APIError.
func WrapAPIError(kind ErrorKind, err error, format string, args ...interface{}) *APIError {
	return &APIError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors
// report as ServiceUnavailable so nothing leaks internals to callers.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServiceUnavailable
}

// WireStatus maps an error kind to the response envelope status:
// "rejected" for deliberate refusals, "error" for infrastructure failures.
func WireStatus(kind ErrorKind) string {
	switch kind {
	case KindServiceUnavailable, KindAdapterError:
		return "error"
	default:
		return "rejected"
	}
}

// HTTPStatus maps an error kind to its wire status code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindConflict:
		return http.StatusConflict
	case KindNegotiationExpired:
		return http.StatusGone
	case KindRoundLimitExceeded:
		return http.StatusUnprocessableEntity
	case KindAdapterError:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}
