package models

import (
	"errors"
	"fmt"
)

// Error codes. Every failure surfaced to a client carries exactly one of these.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeMissingHeader    = "MISSING_AUTH_HEADER"
	CodeMalformedHeader  = "MALFORMED_AUTH_HEADER"
	CodeInternal         = "INTERNAL_ERROR"
	internalErrorMessage = "Internal server error"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields holds field-level messages for validation-style failures.
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by code, so errors.Is(err, &AppError{Code: CodeNotFound}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Predefined error constructors
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
	}
}

func NewAuthenticationError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
		Err:     err,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewMissingHeaderError(message string) *AppError {
	return &AppError{
		Code:    CodeMissingHeader,
		Message: message,
	}
}

func NewMalformedHeaderError(message string) *AppError {
	return &AppError{
		Code:    CodeMalformedHeader,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: internalErrorMessage,
		Err:     err,
	}
}

// AsAppError returns err as an *AppError, wrapping anything unknown as an internal error.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err is an *AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
