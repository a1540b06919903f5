package netcomm

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes netcomm errors.
type ErrorCode string

const (
	// ErrCodeUnknownKey indicates no channel is declared under the key.
	ErrCodeUnknownKey ErrorCode = "UNKNOWN_KEY"

	// ErrCodeDuplicateKey indicates a second channel was declared under a key.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeWrongDirection indicates a write from the wrong side, such as a
	// host Set on an out channel.
	ErrCodeWrongDirection ErrorCode = "WRONG_DIRECTION"

	// ErrCodeKindMismatch indicates a payload of the wrong kind.
	ErrCodeKindMismatch ErrorCode = "KIND_MISMATCH"

	// ErrCodeStale indicates a publish stamped earlier than the last update.
	ErrCodeStale ErrorCode = "STALE"

	// ErrCodeClosed indicates the bus no longer accepts writes.
	ErrCodeClosed ErrorCode = "CLOSED"
)

// Error is the structured error returned by this package.
type Error struct {
	Code    ErrorCode
	Key     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key=%s)", msg, e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of a netcomm error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// IsUnknownKey reports whether err is an unknown-key error.
func IsUnknownKey(err error) bool { return CodeOf(err) == ErrCodeUnknownKey }

// IsWrongDirection reports whether err is a wrong-direction error.
func IsWrongDirection(err error) bool { return CodeOf(err) == ErrCodeWrongDirection }

// IsKindMismatch reports whether err is a kind-mismatch error.
func IsKindMismatch(err error) bool { return CodeOf(err) == ErrCodeKindMismatch }
