package engine

import (
	"errors"
	"fmt"
	"strings"
)

// BuildError represents an error detected while building a net.
//
// Build errors include:
//   - Invalid parameter: a primitive rejected its parameters
//   - Unconnected input: a required input has no wire
//   - Kind mismatch: a wire joins ports of different kinds
//   - Cycle: data edges form a loop not broken by a latched input
//   - Duplicate: a node name or wire target is used twice
//   - Unknown port: a wire names a node or port that does not exist
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Node names the offending primitive, if any.
	Node string

	// Message is a human-readable description.
	Message string

	// Path lists the node names of a cycle, first node repeated at the end.
	Path []string

	// Err is the underlying cause, if any.
	Err error
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	ErrCodeInvalidParameter BuildErrorCode = "INVALID_PARAMETER"
	ErrCodeUnconnected      BuildErrorCode = "UNCONNECTED_INPUT"
	ErrCodeKindMismatch     BuildErrorCode = "KIND_MISMATCH"
	ErrCodeCycle            BuildErrorCode = "CYCLE"
	ErrCodeDuplicate        BuildErrorCode = "DUPLICATE"
	ErrCodeUnknownPort      BuildErrorCode = "UNKNOWN_PORT"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Path) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(e.Path, " -> "))
		sb.WriteString(")")
	}
	if e.Node != "" {
		fmt.Fprintf(&sb, " (node=%s)", e.Node)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error { return e.Err }

// BuildCode returns the code of a build error, or "" for other errors.
// Uses errors.As to handle wrapped errors.
func BuildCode(err error) BuildErrorCode {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsCycleError reports whether err is an illegal-cycle build error.
func IsCycleError(err error) bool { return BuildCode(err) == ErrCodeCycle }

// IsInvalidParameter reports whether err is a parameter-check build error.
func IsInvalidParameter(err error) bool { return BuildCode(err) == ErrCodeInvalidParameter }

// FaultError represents a fatal runtime fault of a net.
//
// A primitive returns one from UpdateData or WriteActuator, for example on
// integer division by a zero it received on the wire. The net records it and
// refuses further cycles.
type FaultError struct {
	// Code is ErrCodeFault for the fault itself and ErrCodeFaulted when
	// stepping a net that already faulted.
	Code FaultCode

	// Net is the net name.
	Net string

	// Node names the faulting primitive.
	Node string

	// Cycle is the index of the aborted cycle.
	Cycle int64

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any. For ErrCodeFaulted it is the
	// original fault.
	Err error
}

// FaultCode categorizes runtime faults.
type FaultCode string

const (
	// ErrCodeFault indicates a primitive faulted during a cycle.
	ErrCodeFault FaultCode = "FAULT"

	// ErrCodeFaulted indicates Step was called on a faulted net.
	ErrCodeFaulted FaultCode = "FAULTED"
)

// Error implements the error interface.
func (e *FaultError) Error() string {
	msg := fmt.Sprintf("%s: %s (net=%s, cycle=%d", e.Code, e.Message, e.Net, e.Cycle)
	if e.Node != "" {
		msg += ", node=" + e.Node
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FaultError) Unwrap() error { return e.Err }

// IsFault reports whether err is a fault raised during a cycle.
func IsFault(err error) bool {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeFault
	}
	return false
}

// IsFaulted reports whether err came from stepping an already faulted net.
func IsFaulted(err error) bool {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeFaulted
	}
	return false
}
