// Package apperr provides standardized error handling for the Raphael API.
//
// Every component returns a *AppError upward; the HTTP surface is the
// only layer that maps a kind to a status code (spec §7).
package apperr

import (
	"fmt"
	"net/http"
)

// AppError is a typed application error with HTTP context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorResponse is the JSON body returned to clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error kinds, one per row of spec.md §7.
const (
	CodeBadInput         = "BAD_INPUT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeInternal         = "INTERNAL"
)

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusFor(code)}
}

func NewWithDetails(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details, StatusCode: statusFor(code)}
}

func Wrap(code, message string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewWithDetails(code, message, details)
}

func statusFor(code string) int {
	switch code {
	case CodeBadInput:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Code, Message: e.Message, Code: e.Code, Details: e.Details}
}

// Convenience constructors mirroring the kinds in spec.md §7.

func BadInput(message string) *AppError { return New(CodeBadInput, message) }

func Unauthenticated(message string) *AppError { return New(CodeUnauthenticated, message) }

func Forbidden(message string) *AppError { return New(CodeForbidden, message) }

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Conflict(message string) *AppError { return New(CodeConflict, message) }

func PayloadTooLarge() *AppError {
	return New(CodePayloadTooLarge, "request body exceeds the size limit")
}

func Internal(message string) *AppError { return New(CodeInternal, message) }

// InternalFrom wraps a non-nil error as an internal AppError. Returns
// nil when err is nil so callers can use it directly as a return value.
func InternalFrom(err error) error {
	if err == nil {
		return nil
	}
	return Wrap(CodeInternal, "internal error", err)
}
