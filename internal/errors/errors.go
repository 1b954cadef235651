// Package errors provides coded domain errors for the Packdex resolver and its admin surface.
//
// Usage:
//
//	// In the registry - return typed errors
//	if installed {
//	    return errors.DuplicatePackf("pack %q is already installed", packID)
//	}
//
//	// At the edge - check with errors.Is
//	if errors.Is(err, errors.ErrQuotaExceeded) {
//	    ...
//	}
//
//	// Or switch on the code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeDuplicatePack:
//	    case errors.CodePackNotFound:
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeDisabled       Code = "DISABLED"
	CodeDuplicatePack  Code = "DUPLICATE_PACK"
	CodeQuotaExceeded  Code = "QUOTA_EXCEEDED"
	CodePackNotFound   Code = "PACK_NOT_FOUND"
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeInvalidPack    Code = "INVALID_PACK"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodePackNotFound:
		return http.StatusNotFound
	case CodeDisabled:
		return http.StatusGone
	case CodeDuplicatePack:
		return http.StatusConflict
	case CodeQuotaExceeded:
		return http.StatusUnprocessableEntity
	case CodeInvalidRequest, CodeInvalidPack:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrDisabled       = &Error{Code: CodeDisabled, Message: "removed or disabled"}
	ErrDuplicatePack  = &Error{Code: CodeDuplicatePack, Message: "pack already installed"}
	ErrQuotaExceeded  = &Error{Code: CodeQuotaExceeded, Message: "pack quota exceeded"}
	ErrPackNotFound   = &Error{Code: CodePackNotFound, Message: "pack not installed"}
	ErrInvalidRequest = &Error{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrInvalidPack    = &Error{Code: CodeInvalidPack, Message: "invalid pack"}
	ErrRateLimited    = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Disabled creates an error for a record that exists but is hidden.
func Disabled(msg string) *Error {
	return &Error{Code: CodeDisabled, Message: msg}
}

// DuplicatePackf creates a duplicate pack error with formatted message.
func DuplicatePackf(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicatePack, Message: fmt.Sprintf(format, args...)}
}

// QuotaExceededf creates a quota error with formatted message.
func QuotaExceededf(format string, args ...any) *Error {
	return &Error{Code: CodeQuotaExceeded, Message: fmt.Sprintf(format, args...)}
}

// PackNotFoundf creates a pack not found error with formatted message.
func PackNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodePackNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidRequest creates an invalid request error.
func InvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}

// InvalidRequestf creates an invalid request error with formatted message.
func InvalidRequestf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// InvalidPack creates an invalid pack error.
func InvalidPack(msg string) *Error {
	return &Error{Code: CodeInvalidPack, Message: msg}
}

// InvalidPackf creates an invalid pack error with formatted message.
func InvalidPackf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidPack, Message: fmt.Sprintf(format, args...)}
}

// InvalidPackWithDetails creates an invalid pack error with details.
func InvalidPackWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeInvalidPack, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// RateLimitedf creates a RATE_LIMITED error with a formatted message.
func RateLimitedf(format string, args ...any) *Error {
	return &Error{Code: CodeRateLimited, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
