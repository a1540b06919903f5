package value

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes value-graph errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a factory received a missing operand,
	// an operand of the wrong type, or an out-of-range parameter.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeUnavailable indicates CurrentValue was called on a node that is
	// not available, or with no runtime attached.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"

	// ErrCodeReadFailed indicates the runtime could not complete a read
	// (timeout, disconnection, rejection).
	ErrCodeReadFailed ErrorCode = "READ_FAILED"

	// ErrCodeUnsupported indicates a node cannot be rewritten by Substitute.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Error is the structured error returned by this package.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the operation or factory that failed, e.g. "Add".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsUnavailable reports whether err is an unavailable error.
func IsUnavailable(err error) bool { return hasCode(err, ErrCodeUnavailable) }

// IsReadFailed reports whether err is a read-failed error.
func IsReadFailed(err error) bool { return hasCode(err, ErrCodeReadFailed) }

// IsUnsupported reports whether err is an unsupported-operation error.
func IsUnsupported(err error) bool { return hasCode(err, ErrCodeUnsupported) }

func invalidArg(op, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Op: op, Message: fmt.Sprintf(format, args...)}
}

func wrapInvalidArg(op string, err error) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Op: op, Message: "invalid operands", Err: err}
}

// Must returns v or panics if err is non-nil.
// Use only in tests or when operands are known to be valid.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
