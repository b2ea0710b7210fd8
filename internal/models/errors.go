package models

import (
	"fmt"
	"net/http"
)

// APIError represents an error response returned by the analytics HTTP endpoints.
// It mirrors the OAuth2 error body shape (error, error_description) used across the
// dashboard's backend services and implements the error interface.
type APIError struct {
	// Code is the machine-readable error code (e.g., "invalid_request").
	Code string `json:"error"`
	// Description provides additional human-readable error information.
	Description string `json:"error_description,omitempty"`
	// StatusCode is the HTTP status code to return (excluded from JSON).
	StatusCode int `json:"-"`
}

// NewInvalidRequest creates an "invalid_request" error for malformed query parameters.
// Returns HTTP 400 Bad Request.
func NewInvalidRequest(description string) *APIError {
	return &APIError{
		Code:        "invalid_request",
		Description: description,
		StatusCode:  http.StatusBadRequest,
	}
}

// NewServerError creates a "server_error" error for failures the engine could not contain.
// Returns HTTP 500 Internal Server Error.
func NewServerError(description string) *APIError {
	return &APIError{
		Code:        "server_error",
		Description: description,
		StatusCode:  http.StatusInternalServerError,
	}
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// WithDescription sets the error_description field and returns the same instance for chaining.
func (e *APIError) WithDescription(description string) *APIError {
	e.Description = description
	return e
}

var (
	// ErrMethodNotAllowed is returned for non-GET requests to read-only endpoints.
	ErrMethodNotAllowed = &APIError{
		Code:       "method_not_allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}

	// ErrRateLimited is returned when a client exceeds the configured request rate.
	ErrRateLimited = &APIError{
		Code:        "rate_limit_exceeded",
		Description: "Too many requests",
		StatusCode:  http.StatusTooManyRequests,
	}

	// ErrServerError indicates an unexpected condition prevented the request from completing.
	ErrServerError = &APIError{
		Code:       "server_error",
		StatusCode: http.StatusInternalServerError,
	}
)
