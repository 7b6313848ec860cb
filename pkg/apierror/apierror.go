package apierror

import (
	"fmt"
	"net/http"
)

const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeStateConflict = "STATE_CONFLICT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeInternal      = "INTERNAL_ERROR"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Wrap builds an APIError whose message is taken from cause, keeping cause
// reachable through errors.Is.
func Wrap(cause error, code string, details string, status int) *APIError {
	return &APIError{Code: code, Message: cause.Error(), Details: details, HTTPStatus: status, cause: cause}
}

func BadRequest(cause error, details string) *APIError {
	return Wrap(cause, CodeBadRequest, details, http.StatusBadRequest)
}

func Conflict(cause error, details string) *APIError {
	return Wrap(cause, CodeStateConflict, details, http.StatusBadRequest)
}

func Unauthorized(cause error) *APIError {
	return Wrap(cause, CodeUnauthorized, "", http.StatusUnauthorized)
}

func Forbidden(cause error, details string) *APIError {
	return Wrap(cause, CodeForbidden, details, http.StatusForbidden)
}

func NotFound(cause error, details string) *APIError {
	return Wrap(cause, CodeNotFound, details, http.StatusNotFound)
}
