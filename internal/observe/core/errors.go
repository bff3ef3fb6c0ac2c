// Package core defines sentinel errors.
package core

import "errors"

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeInvalidJSON  ErrorCode = "INVALID_JSON"
	CodeInvalidBody  ErrorCode = "INVALID_BODY"
	CodeInvalidValue ErrorCode = "INVALID_VALUE"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnavailable  ErrorCode = "UNAVAILABLE"
	CodeStore        ErrorCode = "STORE_ERROR"
)

// AppError is a typed application error.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the error message.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches AppErrors by code so wrapped copies compare equal to sentinels.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// Wrap creates a new AppError.
func Wrap(code ErrorCode, msg string, err error) error {
	return &AppError{Code: code, Message: msg, Err: err}
}

// CodeOf returns the ErrorCode for an error.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ErrInvalidInput indicates validation failures.
var ErrInvalidInput = &AppError{Code: CodeInvalidInput, Message: "invalid input"}

// ErrInvalidJSON indicates a request body that could not be decoded.
var ErrInvalidJSON = &AppError{Code: CodeInvalidJSON, Message: "Invalid JSON"}

// ErrInvalidBody indicates well-formed JSON whose top level is not an object.
var ErrInvalidBody = &AppError{Code: CodeInvalidBody, Message: "request body is not a JSON object"}

// ErrInvalidValue indicates a sample value the store cannot hold as an integer.
var ErrInvalidValue = &AppError{Code: CodeInvalidValue, Message: "invalid sample value"}

// ErrNotFound indicates missing resources.
var ErrNotFound = &AppError{Code: CodeNotFound, Message: "not found"}

// ErrUnavailable indicates the service is draining.
var ErrUnavailable = &AppError{Code: CodeUnavailable, Message: "service unavailable"}
