package api

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/internal/notify"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidRecord    ErrorCode = "INVALID_RECORD"
	ErrorCodeRecordNotFound   ErrorCode = "RECORD_NOT_FOUND"
	ErrorCodeRecordExists     ErrorCode = "RECORD_ALREADY_EXISTS"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeNoContact        ErrorCode = "NO_CONTACT"
	ErrorCodeRequestTooLarge  ErrorCode = "REQUEST_TOO_LARGE"

	// Server Error Codes (5xx)
	ErrorCodeInternalError         ErrorCode = "INTERNAL_ERROR"
	ErrorCodeStoreUnavailable      ErrorCode = "STORE_UNAVAILABLE"
	ErrorCodeNotificationsDisabled ErrorCode = "NOTIFICATIONS_DISABLED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	// Add request ID if available
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.AbortWithStatusJSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendRecordNotFoundError sends a standardized record not found error
func SendRecordNotFoundError(c *gin.Context, itemID string) {
	SendError(c, http.StatusNotFound, ErrorCodeRecordNotFound,
		"Item '"+itemID+"' not found")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendServiceError maps an error returned by the record service, the matcher or
// the notifier onto the status code and error code clients rely on.
func SendServiceError(c *gin.Context, operation string, err error) {
	var validationErr *errors.ValidationError
	switch {
	case stderrors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: validationErr.Field, Message: validationErr.Message, Code: "VALIDATION_ERROR"})
	case stderrors.Is(err, errors.ErrInvalidRecord):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRecord, err.Error())
	case stderrors.Is(err, errors.ErrInvalidInput):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
	case stderrors.Is(err, errors.ErrNoContact):
		SendError(c, http.StatusUnprocessableEntity, ErrorCodeNoContact, err.Error())
	case stderrors.Is(err, errors.ErrRecordNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeRecordNotFound, err.Error())
	case stderrors.Is(err, errors.ErrRecordExists):
		SendError(c, http.StatusConflict, ErrorCodeRecordExists, err.Error())
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		SendError(c, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable, err.Error())
	case stderrors.Is(err, notify.ErrDisabled):
		SendError(c, http.StatusServiceUnavailable, ErrorCodeNotificationsDisabled, err.Error())
	default:
		SendInternalError(c, operation, err)
	}
}
