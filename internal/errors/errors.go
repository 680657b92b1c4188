package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidRecord is returned when a record is structurally malformed (e.g. unknown type)
	ErrInvalidRecord = errors.New("invalid record")

	// ErrStoreUnavailable is returned when the record store cannot serve a request
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrRecordNotFound is returned when a record is not found
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists is returned when trying to add a record whose ID is already taken
	ErrRecordExists = errors.New("record already exists")

	// ErrNoIndex is returned when vectorizing against an index fitted on an empty corpus
	ErrNoIndex = errors.New("no index")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoContact is returned when a record carries no usable contact
	ErrNoContact = errors.New("no usable contact")
)

// InvalidRecordError represents a structurally invalid record with context
type InvalidRecordError struct {
	RecordID string
	Reason   string
}

func (e *InvalidRecordError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("invalid record '%s': %s", e.RecordID, e.Reason)
	}
	return fmt.Sprintf("invalid record: %s", e.Reason)
}

func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// NewInvalidRecordError creates a new InvalidRecordError
func NewInvalidRecordError(recordID, reason string) *InvalidRecordError {
	return &InvalidRecordError{RecordID: recordID, Reason: reason}
}

// StoreUnavailableError wraps a failure reported by the record store
type StoreUnavailableError struct {
	Operation string
	Err       error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("record store unavailable during %s: %v", e.Operation, e.Err)
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// NewStoreUnavailableError creates a new StoreUnavailableError
func NewStoreUnavailableError(operation string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Operation: operation, Err: err}
}

// RecordNotFoundError represents a record not found error with context
type RecordNotFoundError struct {
	RecordID string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record with ID '%s' not found", e.RecordID)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// NewRecordNotFoundError creates a new RecordNotFoundError
func NewRecordNotFoundError(recordID string) *RecordNotFoundError {
	return &RecordNotFoundError{RecordID: recordID}
}

// RecordExistsError represents a duplicate record ID
type RecordExistsError struct {
	RecordID string
}

func (e *RecordExistsError) Error() string {
	return fmt.Sprintf("record with ID '%s' already exists", e.RecordID)
}

func (e *RecordExistsError) Is(target error) bool {
	return target == ErrRecordExists
}

// NewRecordExistsError creates a new RecordExistsError
func NewRecordExistsError(recordID string) *RecordExistsError {
	return &RecordExistsError{RecordID: recordID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
