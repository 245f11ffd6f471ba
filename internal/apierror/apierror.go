package apierror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an API error carrying the HTTP status and the JSON envelope
// fields returned to clients.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Validation returns a 400 error
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "Validation Error", Message: message}
}

// Unauthorized returns a 401 error
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "Authentication Error", Message: message}
}

// NotFound returns a 404 error
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "Not Found", Message: message}
}

// Unprocessable returns a 422 error
func Unprocessable(message string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: "Processing Error", Message: message}
}

// RateLimited returns a 429 error
func RateLimited(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: "Rate Limit Exceeded", Message: message}
}

// Internal returns a 500 error
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "Internal Server Error", Message: message}
}

// From converts any error into an API error. Errors that are not already
// API errors are masked behind a generic 500 so internal details never
// reach clients.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("An unexpected error occurred")
}

// Respond writes the error envelope for err and aborts the request
func Respond(c *gin.Context, err error) {
	apiErr := From(err)
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}
