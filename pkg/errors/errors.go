package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the persona chat pipeline. Handlers branch on these, so they
// are part of the API contract.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMITED"
	CodeGeneration  = "GENERATION_FAILED"
	CodeStorage     = "STORAGE_ERROR"
	CodeInternal    = "SERVER_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new application error
func New(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewValidationError reports missing or malformed input. No retry, no side effects.
func NewValidationError(message string) *AppError {
	return New(http.StatusBadRequest, CodeValidation, message)
}

// NewNotFoundError reports a referenced persona or session that does not exist.
func NewNotFoundError(message string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// NewRateLimitedError reports an exhausted client quota. Expected control flow,
// not a bug; callers render a "slow down" message.
func NewRateLimitedError(message string) *AppError {
	return New(http.StatusTooManyRequests, CodeRateLimited, message)
}

// NewGenerationError reports a failed or timed-out completion backend call.
func NewGenerationError(message string) *AppError {
	return New(http.StatusBadGateway, CodeGeneration, message)
}

// NewStorageError reports a persistence failure. Fatal for the current
// operation; never silently swallowed.
func NewStorageError(message string) *AppError {
	return New(http.StatusInternalServerError, CodeStorage, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(message string) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// FromError converts any error to an AppError, defaulting to a 500
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalServerError(err.Error())
}

// IsCode reports whether err is an AppError carrying the given code
func IsCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
