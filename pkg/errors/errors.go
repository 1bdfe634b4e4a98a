package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable = NewError("SOURCE_UNAVAILABLE", "event source failed or timed out")
	ErrMalformedRecord   = NewError("MALFORMED_RECORD", "record could not be normalized")
	ErrSnapshotWrite     = NewError("SNAPSHOT_WRITE_FAILURE", "catalog snapshot could not be persisted")
	ErrInvariant         = NewError("INVARIANT_VIOLATION", "record violates a catalog invariant")
	ErrValidation        = NewError("VALIDATION_ERROR", "validation failed")
	ErrRunInFlight       = NewError("RUN_IN_FLIGHT", "a pipeline run is already in progress")
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the operation behind the error is worth
// another attempt. Malformed input and invariant violations never are.
func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return !fatalErr.IsFatal()
		}
	}
	return e.Code != ErrMalformedRecord.Code && e.Code != ErrInvariant.Code && e.Code != ErrValidation.Code
}

func (e *Error) IsFatal() bool {
	if e.retryable != nil {
		return !*e.retryable
	}

	if e.Cause != nil {
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return fatalErr.IsFatal()
		}
	}

	return e.Code == ErrMalformedRecord.Code || e.Code == ErrInvariant.Code || e.Code == ErrValidation.Code
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	}
	err.Details[key] = value
	return &err
}

func (e *Error) AsRetryable() *Error {
	err := *e
	retryable := true
	err.retryable = &retryable
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	retryable := false
	err.retryable = &retryable
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

func IsSourceUnavailable(err error) bool {
	return Is(err, ErrSourceUnavailable)
}

func IsMalformedRecord(err error) bool {
	return Is(err, ErrMalformedRecord)
}

func IsSnapshotWrite(err error) bool {
	return Is(err, ErrSnapshotWrite)
}

func IsInvariant(err error) bool {
	return Is(err, ErrInvariant)
}

func IsRunInFlight(err error) bool {
	return Is(err, ErrRunInFlight)
}
