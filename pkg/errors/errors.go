package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound            = "NOT_FOUND"
	CodeBadRequest          = "BAD_REQUEST"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeRetrieval           = "RETRIEVAL_ERROR"
	CodeTransactionConflict = "TRANSACTION_CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed if sent again.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeRetrieval, CodeTransactionConflict, CodeTooManyRequests:
		return true
	}
	return false
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, err)
}

func BadRequest(message string, err error) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest, err)
}

// Validation rejects input before any store call is made.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest, nil)
}

func Unauthorized(message string, err error) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized, err)
}

func Forbidden(message string, err error) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden, err)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

// Retrieval means the store could not be reached or rejected a query. It is
// distinct from a successful query that returned nothing.
func Retrieval(message string, err error) *AppError {
	return New(CodeRetrieval, message, http.StatusServiceUnavailable, err)
}

// TransactionConflict is returned once the store gave up retrying an
// optimistic transaction. It signals contention, not corruption.
func TransactionConflict(message string, err error) *AppError {
	return New(CodeTransactionConflict, message, http.StatusConflict, err)
}

func Internal(message string, err error) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError, err)
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As unwraps err into an AppError when it carries one.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
