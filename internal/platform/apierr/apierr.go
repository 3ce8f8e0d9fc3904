package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the required role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRateLimited is returned when a caller exceeded an attempt budget.
	ErrRateLimited = errors.New("too many attempts")
)

type Error struct {
	Status int
	Code   string
	Err    error
	// RetryAfter is set for 429 responses.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error {
	if err == nil {
		err = ErrInvalidArgument
	}
	return New(http.StatusBadRequest, code, err)
}

func NotFound(code string) *Error {
	return New(http.StatusNotFound, code, ErrNotFound)
}

func Unauthorized() *Error {
	return New(http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
}

func Forbidden() *Error {
	return New(http.StatusForbidden, "forbidden", ErrForbidden)
}

func Conflict(code string, err error) *Error {
	return New(http.StatusConflict, code, err)
}

func Internal(code string, err error) *Error {
	return New(http.StatusInternalServerError, code, err)
}

// FromAggregate converts an aggregate failure into an API error. The aggregate reason, when
// present, becomes the response code; otherwise conflictCode is used for conflict and invariant
// failures.
func FromAggregate(err error, conflictCode string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	reason := domainagg.ReasonOf(err)
	pick := func(fallback string) string {
		if reason != "" {
			return reason
		}
		return fallback
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, pick("invalid_request"), err)
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, pick("not_found"), err)
	case domainagg.CodeConflict, domainagg.CodeInvariantViolation:
		return New(http.StatusConflict, pick(conflictCode), err)
	case domainagg.CodePreconditionFailed:
		return New(http.StatusPreconditionFailed, "precondition_failed", err)
	case domainagg.CodeRetryable:
		return New(http.StatusServiceUnavailable, "retry", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
