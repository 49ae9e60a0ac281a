package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	// ErrCodeConfig is fatal and only produced at startup
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"
	// ErrCodeTransientNetwork is retried with bounded backoff, never fatal
	ErrCodeTransientNetwork ErrorCode = "TRANSIENT_NETWORK"
	// ErrCodeElementNotFound aborts the current overlay operation only
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"
	// ErrCodeUnexpected terminates the process after the exit delay
	ErrCodeUnexpected ErrorCode = "UNEXPECTED_FAULT"
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// NewConfigError reports an invalid or missing configuration field
func NewConfigError(field, message string) *AppError {
	return NewAppError(ErrCodeConfig, fmt.Sprintf("%s %s", field, message)).WithContext("field", field)
}

// NewTransientError wraps a failure talking to the stats endpoint or OBS
func NewTransientError(target string, err error) *AppError {
	return WrapError(err, ErrCodeTransientNetwork, fmt.Sprintf("%s unavailable", target)).WithContext("target", target)
}

// NewElementNotFoundError reports a source missing from the named scene
func NewElementNotFoundError(source, scene string) *AppError {
	return NewAppError(ErrCodeElementNotFound, fmt.Sprintf("source %q not found in scene %q", source, scene)).
		WithContext("source", source).
		WithContext("scene", scene)
}

// NewUnexpectedError wraps anything outside the taxonomy
func NewUnexpectedError(err error) *AppError {
	return WrapError(err, ErrCodeUnexpected, "unexpected fault")
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

func IsConfigError(err error) bool {
	return HasCode(err, ErrCodeConfig)
}

func IsTransient(err error) bool {
	return HasCode(err, ErrCodeTransientNetwork)
}

func IsElementNotFound(err error) bool {
	return HasCode(err, ErrCodeElementNotFound)
}
