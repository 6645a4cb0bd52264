package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of hard failure.
type ErrorCode string

// Error codes. Undefined values and soft temporal failures are not errors and
// never carry a code.
const (
	// E01xx: evaluation errors
	ErrFailedNode        ErrorCode = "E0101"
	ErrNotSupported      ErrorCode = "E0102"
	ErrEmptyAggregate    ErrorCode = "E0103"
	ErrMalformedMatches  ErrorCode = "E0104"
	ErrUnboundParameter  ErrorCode = "E0105"
	ErrUnboundEach       ErrorCode = "E0106"
	ErrNotBoolean        ErrorCode = "E0107"
	ErrTemporalArray     ErrorCode = "E0108"
	ErrMaxDepth          ErrorCode = "E0109"
	ErrCanceled          ErrorCode = "E0110"
	ErrSimplifierRunaway ErrorCode = "E0111"

	// A02xx: algebra errors (differentiation, inversion)
	ErrUnsupportedShape     ErrorCode = "A0201"
	ErrMultipleOccurrences  ErrorCode = "A0202"
	ErrVariableNotFound     ErrorCode = "A0203"
	ErrInvalidDifferentiate ErrorCode = "A0204"

	// V03xx: document errors
	ErrInvalidDocument ErrorCode = "V0301"
)

// Error is a structured engine error.
type Error struct {
	Code    ErrorCode
	Message string
	Node    Node
	Err     error
}

// NewError creates a new engine error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new engine error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithNode records the node that failed.
func (e *Error) WithNode(n Node) *Error {
	e.Node = n
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotSupported reports whether err marks an operation the engine
// deliberately does not implement for the node shape.
func IsNotSupported(err error) bool {
	switch CodeOf(err) {
	case ErrNotSupported, ErrUnsupportedShape:
		return true
	}
	return false
}
