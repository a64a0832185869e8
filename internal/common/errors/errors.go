package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

	// Construction / startup errors.
	ErrCodeUnknownDatabaseKind ErrorCode = "UNKNOWN_DATABASE_KIND"
	ErrCodeNoClientSupplied    ErrorCode = "NO_CLIENT_SUPPLIED"
	ErrCodeMissingOption       ErrorCode = "MISSING_REQUIRED_OPTION"
	ErrCodeMissingIntent       ErrorCode = "MISSING_REQUIRED_INTENT"

	// Database errors.
	ErrCodeDatabase          ErrorCode = "DATABASE_BACKEND_ERROR"
	ErrCodeInvalidTargetType ErrorCode = "INVALID_TARGET_TYPE"

	// Per-operation validation errors.
	ErrCodeMissingArgument     ErrorCode = "MISSING_REQUIRED_ARGUMENT"
	ErrCodeInvalidArgumentType ErrorCode = "INVALID_ARGUMENT_TYPE"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidDuration     ErrorCode = "INVALID_DURATION_STRING"

	// Giveaway lifecycle errors.
	ErrCodeUnknownGiveaway ErrorCode = "UNKNOWN_GIVEAWAY"
	ErrCodeGiveawayEnded   ErrorCode = "GIVEAWAY_ALREADY_ENDED"
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
)

// Database failure sub-reasons, carried in the "reason" detail of
// ErrCodeDatabase errors.
const (
	DatabaseReasonMalformed = "malformed"
	DatabaseReasonNotFound  = "not-found"
	DatabaseReasonOther     = "other"
)

// AppError is the single error type used across the module. Callers branch on
// Code rather than on concrete types.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches structured context to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a coded application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a coded application error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to a new coded error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of err, or ErrCodeInternal when err is not an
// AppError. A nil err yields the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// AsAppError extracts an AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewMissingArgument reports a required argument absent from a method call.
func NewMissingArgument(parameter, method string) *AppError {
	return Newf(ErrCodeMissingArgument, "missing required argument %q in %s", parameter, method).
		WithDetail("parameter", parameter).
		WithDetail("method", method)
}

// NewInvalidArgumentType reports an argument of the wrong type.
func NewInvalidArgumentType(parameter, expected, received string) *AppError {
	return Newf(ErrCodeInvalidArgumentType, "argument %q must be %s, received %s", parameter, expected, received).
		WithDetail("parameter", parameter).
		WithDetail("expected", expected).
		WithDetail("received", received)
}

// NewInvalidTargetType reports a stored value with the wrong shape for the
// requested numeric or array operation.
func NewInvalidTargetType(key, expected string) *AppError {
	return Newf(ErrCodeInvalidTargetType, "value at %q is not %s", key, expected).
		WithDetail("key", key).
		WithDetail("expected", expected)
}

// NewDatabaseError wraps a backend failure, tagging the sub-reason so callers
// can distinguish a malformed store from a missing one.
func NewDatabaseError(reason string, err error) *AppError {
	return Wrapf(err, ErrCodeDatabase, "database backend error (%s)", reason).
		WithDetail("reason", reason)
}

// NewUnknownGiveaway reports that no record matched the given message ID.
func NewUnknownGiveaway(messageID string) *AppError {
	return Newf(ErrCodeUnknownGiveaway, "no giveaway found for message %s", messageID).
		WithDetail("message_id", messageID)
}
