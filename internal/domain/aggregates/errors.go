package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode classifies why an aggregate write failed.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error is returned by every aggregate write method.
// Reason, when set, is the machine readable cause shown to API callers
// (insufficient_stock, slot_taken, room_unavailable).
type Error struct {
	Code    ErrorCode
	Op      string
	Reason  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString(" ")
	}
	b.WriteString("[")
	b.WriteString(string(e.Code))
	if e.Reason != "" {
		b.WriteString("/")
		b.WriteString(e.Reason)
	}
	b.WriteString("]")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code, and by reason when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// NewReasonError builds an error whose reason is surfaced to the caller.
func NewReasonError(code ErrorCode, op, reason, message string) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Reason: strings.TrimSpace(reason), Message: strings.TrimSpace(message)}
}

// Wrap classifies err under code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func asError(err error) *Error {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr
	}
	return nil
}

func IsCode(err error, code ErrorCode) bool {
	e := asError(err)
	return e != nil && e.Code == code
}

func CodeOf(err error) ErrorCode {
	if e := asError(err); e != nil {
		return e.Code
	}
	return ""
}

func ReasonOf(err error) string {
	if e := asError(err); e != nil {
		return e.Reason
	}
	return ""
}
