package verification

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for verification calls.
type ErrorCategory string

const (
	// ErrorTimeout means the call did not finish within its deadline.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorUnavailable means the capability could not be invoked.
	ErrorUnavailable ErrorCategory = "unavailable"

	// ErrorBadData means the capability ran but could not produce a usable
	// result, e.g. an unreadable document.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal indicates an unexpected failure.
	ErrorInternal ErrorCategory = "internal"
)

// Error wraps a verification failure with its category.
type Error struct {
	Category   ErrorCategory
	Capability Capability
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Capability, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Capability, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func NewError(category ErrorCategory, capability Capability, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Capability: capability,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category. Context errors count as timeouts and
// anything else unrecognized counts as internal.
func CategoryOf(err error) ErrorCategory {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Category
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTimeout
	}
	return ErrorInternal
}

// IsServiceFailure reports whether the capability ran and returned a failure
// result, as opposed to being unreachable.
func IsServiceFailure(err error) bool {
	return CategoryOf(err) == ErrorBadData
}

// MessageOf returns the failure message without the wrapping prefix.
func MessageOf(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// ErrCircuitOpen is returned while a capability's breaker is open.
var ErrCircuitOpen = errors.New("circuit open")
