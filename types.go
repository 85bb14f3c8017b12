package fusex

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrorCode represents specific error codes for search operations.
type ErrorCode int

const (
	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption ErrorCode = iota + 1000

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when the matching backend is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeNotObject is returned when a value does not encode to a JSON object.
	ErrCodeNotObject

	// ErrCodeClone is returned when an item cannot be deep copied.
	ErrCodeClone
)

// String returns the human-readable string representation of the error code.
// This implements the fmt.Stringer interface.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeNotObject:
		return "not an object"
	case ErrCodeClone:
		return "clone failed"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors that can be returned by search operations.
var (
	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "fusex: invalid option")

	// ErrTimeout is returned when a search operation times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "fusex: operation timed out")

	// ErrCanceled is returned when a search operation is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "fusex: operation canceled")

	// ErrBackendUnavailable is returned when the matching backend is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "fusex: backend unavailable")

	// ErrNotObject is returned when a result item does not encode to a JSON object
	// and therefore cannot carry highlight or score attributes.
	ErrNotObject = newErrorWithCode(ErrCodeNotObject, "fusex: item is not an object")

	// ErrClone is returned when an item cannot be deep copied.
	ErrClone = newErrorWithCode(ErrCodeClone, "fusex: clone failed")
)

// ContextError maps the error of a done ctx to ErrTimeout when its deadline
// expired and to ErrCanceled otherwise.
func ContextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCanceled
}
