// Package response defines consistent HTTP response structures.
// All API responses should use these types for consistency.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"budgettool/src/core/domain"
)

// Success represents a successful response with data.
type Success struct {
	Data any `json:"data"`
}

// Message is the payload returned when a listing has no rows.
type Message struct {
	Message string `json:"message"`
}

// Error represents an error response.
type Error struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	// Code is a machine-readable error code (e.g., "NOT_FOUND", "POOL_TIMEOUT")
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Field is the field that caused the error (for validation errors)
	Field string `json:"field,omitempty"`

	// RequestID is the request ID for debugging
	RequestID string `json:"request_id,omitempty"`
}

// RetryAfter is the Retry-After value, in seconds, sent with pool timeouts.
const RetryAfter = "1"

// OK sends a 200 response with data.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Success{Data: data})
}

// Empty sends a 200 response carrying only a message.
func Empty(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Success{Data: Message{Message: message}})
}

func abort(c *gin.Context, status int, detail ErrorDetail) {
	c.AbortWithStatusJSON(status, Error{Error: detail})
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, message string, requestID string) {
	abort(c, http.StatusBadRequest, ErrorDetail{
		Code:      "BAD_REQUEST",
		Message:   message,
		RequestID: requestID,
	})
}

// ValidationError sends a 400 response for validation failures.
func ValidationError(c *gin.Context, field, message, requestID string) {
	abort(c, http.StatusBadRequest, ErrorDetail{
		Code:      "VALIDATION_ERROR",
		Message:   message,
		Field:     field,
		RequestID: requestID,
	})
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context, message, requestID string) {
	abort(c, http.StatusNotFound, ErrorDetail{
		Code:      "NOT_FOUND",
		Message:   message,
		RequestID: requestID,
	})
}

// PoolTimeout sends a 503 response telling the client to retry shortly.
func PoolTimeout(c *gin.Context, requestID string) {
	c.Header("Retry-After", RetryAfter)
	abort(c, http.StatusServiceUnavailable, ErrorDetail{
		Code:      "POOL_TIMEOUT",
		Message:   "No database connection became available in time",
		RequestID: requestID,
	})
}

// Unavailable sends a 503 response.
func Unavailable(c *gin.Context, message, requestID string) {
	abort(c, http.StatusServiceUnavailable, ErrorDetail{
		Code:      "UNAVAILABLE",
		Message:   message,
		RequestID: requestID,
	})
}

// QueryError sends a 500 response for a failed database statement.
// The driver error is logged, never returned.
func QueryError(c *gin.Context, requestID string) {
	abort(c, http.StatusInternalServerError, ErrorDetail{
		Code:      "QUERY_ERROR",
		Message:   "The database query failed",
		RequestID: requestID,
	})
}

// InternalError sends a 500 response.
func InternalError(c *gin.Context, requestID string) {
	abort(c, http.StatusInternalServerError, ErrorDetail{
		Code:      "INTERNAL_ERROR",
		Message:   "An unexpected error occurred",
		RequestID: requestID,
	})
}

// FromDomainError converts a domain error to an appropriate HTTP response.
func FromDomainError(c *gin.Context, err error, requestID string) {
	var domainErr *domain.DomainError

	switch {
	case domain.IsNotFound(err):
		NotFound(c, err.Error(), requestID)
	case domain.IsValidationError(err):
		if errors.As(err, &domainErr) {
			ValidationError(c, domainErr.Field, domainErr.Message, requestID)
		} else {
			BadRequest(c, err.Error(), requestID)
		}
	case domain.IsPoolTimeout(err):
		PoolTimeout(c, requestID)
	case domain.IsPoolClosed(err):
		Unavailable(c, "The database pool is shut down", requestID)
	case domain.IsQueryError(err):
		QueryError(c, requestID)
	default:
		InternalError(c, requestID)
	}
}
