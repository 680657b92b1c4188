// Package api provides validation utilities for API request handling.
package api

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-lostfound/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`

	// tooLarge marks a request body cut off by RequestSizeLimitMiddleware
	tooLarge bool
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateItemID validates an item ID path parameter
func ValidateItemID(field, itemID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if itemID == "" {
		result.AddError(field, "Item ID is required")
		return result
	}

	if strings.TrimSpace(itemID) != itemID {
		result.AddError(field, "Item ID cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateItemType parses the type query parameter. An empty value is accepted
// unless required is set, and yields "".
func ValidateItemType(raw string, required bool) (model.ItemType, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if raw == "" {
		if required {
			result.AddError("type", "Item type is required ('lost' or 'found')")
		}
		return "", result
	}

	itemType, err := model.ParseItemType(raw)
	if err != nil {
		result.AddError("type", "Item type must be 'lost' or 'found', got '"+raw+"'")
		return "", result
	}
	return itemType, result
}

// ValidateTopK parses the top_k query parameter. An empty value yields -1 so the
// caller can apply its default.
func ValidateTopK(raw string) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if raw == "" {
		return -1, result
	}

	topK, err := strconv.Atoi(raw)
	if err != nil {
		result.AddError("top_k", "top_k must be an integer")
		return -1, result
	}
	if topK < 0 {
		result.AddError("top_k", "top_k cannot be negative")
		return -1, result
	}
	return topK, result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	if result.tooLarge {
		SendError(c, http.StatusRequestEntityTooLarge, ErrorCodeRequestTooLarge, "Request body too large",
			ErrorDetail{Field: "request_body", Message: result.Errors[0].Message})
		return
	}
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			result.tooLarge = true
			result.AddError("request_body", "Request body exceeds "+strconv.FormatInt(maxBytesErr.Limit, 10)+" bytes")
			return result
		}
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
