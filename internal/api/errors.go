// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/iha-referee/backend/internal/ratelimit"
	"github.com/iha-referee/backend/internal/roster"
	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/validation"
	"github.com/labstack/echo/v4"
)

// RateExceededBody is the response body competition clients expect when
// they exceed the telemetry rate.
const RateExceededBody = 3

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Body replaces the structured body when set.
	Body interface{} `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status of the error.
func (e *APIError) StatusCode() int {
	return e.Status
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewUnauthorizedError creates a 401 error for callers without a session
func NewUnauthorizedError() *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHENTICATED",
		Message: "no session for caller, log in first",
	}
}

// NewForbiddenError creates a 403 error for team mismatches
func NewForbiddenError() *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    "IDENTITY_MISMATCH",
		Message: "team number does not match the session",
	}
}

// NewRateExceededError creates the 400 rate limit response
func NewRateExceededError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "RATE_EXCEEDED",
		Message: "telemetry sent too frequently",
		Body:    RateExceededBody,
	}
}

// NewMalformedError creates the empty 204 response for unparseable payloads
func NewMalformedError(cause error) *APIError {
	err := &APIError{
		Status:  http.StatusNoContent,
		Code:    "MALFORMED",
		Message: "payload format is invalid",
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromError maps a referee error to its protocol response.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, validation.ErrMalformed):
		return NewMalformedError(err)
	case errors.Is(err, roster.ErrAuthFailure):
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "AUTH_FAILED",
			Message: "invalid login or credential",
		}
	case errors.Is(err, session.ErrUnauthenticated):
		return NewUnauthorizedError()
	case errors.Is(err, session.ErrIdentityMismatch):
		return NewForbiddenError()
	case errors.Is(err, ratelimit.ErrRateExceeded):
		return NewRateExceededError()
	case errors.Is(err, validation.ErrOutOfRange):
		apiErr := &APIError{
			Status:  http.StatusBadRequest,
			Code:    "OUT_OF_RANGE",
			Message: "telemetry values out of range",
		}
		var verr *validation.Error
		if errors.As(err, &verr) {
			apiErr.Details = strings.Join(verr.Fields, ",")
		}
		return apiErr
	default:
		return NewInternalError("An unexpected error occurred", err)
	}
}

var exposeDetails atomic.Bool

// SetExposeDetails controls whether internal error details are sent to
// clients.
func SetExposeDetails(on bool) {
	exposeDetails.Store(on)
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	if he, ok := err.(*echo.HTTPError); ok {
		apiErr = &APIError{
			Status:  he.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", he.Message),
		}
	} else {
		apiErr = FromError(err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v: %s", c.Request().Method, c.Request().URL.Path, err, apiErr.Details)
		if !exposeDetails.Load() {
			redacted := *apiErr
			redacted.Details = ""
			apiErr = &redacted
		}
	}

	switch {
	case apiErr.Status == http.StatusNoContent:
		c.NoContent(http.StatusNoContent)
	case apiErr.Body != nil:
		c.JSON(apiErr.Status, apiErr.Body)
	default:
		c.JSON(apiErr.Status, apiErr)
	}
}
