package types

import (
	"errors"
	"fmt"
)

// Stable error codes. Callers branch on these, never on message text.
const (
	CodeInvalidGraph              = "INVALID_GRAPH"
	CodeInvalidTransitionSequence = "INVALID_TRANSITION_SEQUENCE"
	CodeInsufficientData          = "INSUFFICIENT_DATA"
	CodeMissingSignal             = "MISSING_SIGNAL"
	CodeExplanationMismatch       = "EXPLANATION_MISMATCH"
)

// Error is an analysis error carrying a stable code string.
// INSUFFICIENT_DATA is the only recoverable code: callers substitute an
// empty bottleneck report and continue. Every other code is a defect in
// the input or the calling sequence and must propagate.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an Error with the given code and formatted message.
func NewError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err is (or wraps) an Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
