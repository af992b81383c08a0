package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard/internal/middleware"
)

// Error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidOperation    = "INVALID_OPERATION"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// FieldError points a validation failure at a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the error payload inside the response envelope.
type APIError struct {
	Code          string       `json:"code"`
	Message       string       `json:"message"`
	Details       []FieldError `json:"details,omitempty"`
	CorrelationID string       `json:"correlationId"`
}

// ErrorResponse is the envelope every error response uses.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// RespondWithError sends an error response, stamping the request's
// correlation id into the body.
func RespondWithError(c *gin.Context, statusCode int, code, message string, details []FieldError) {
	c.JSON(statusCode, ErrorResponse{Error: APIError{
		Code:          code,
		Message:       message,
		Details:       details,
		CorrelationID: middleware.GetCorrelationID(c),
	}})
}

// BadRequest sends a 400 validation response
func BadRequest(c *gin.Context, message string, details ...FieldError) {
	RespondWithError(c, http.StatusBadRequest, ErrCodeValidation, message, details)
}

// InvalidOperation sends a 400 response for a domain-rule violation
func InvalidOperation(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, ErrCodeInvalidOperation, message, nil)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, ErrCodeNotFound, message, nil)
}

// Conflict sends a 409 response for an optimistic-concurrency mismatch
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "The resource was modified by another request"
	}
	RespondWithError(c, http.StatusConflict, ErrCodeConcurrencyConflict, message, nil)
}

// InternalError sends a 500 response. Infrastructure details are never
// exposed to clients.
func InternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil)
}
