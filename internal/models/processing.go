package models

import (
	"fmt"
	"sync/atomic"
)

// CancellationToken provides a way to cancel ongoing processing.
// Cancel is called by the controlling side; the worker polls IsCancelled between units.
type CancellationToken struct {
	cancelled atomic.Bool
}

// NewCancellationToken creates a new cancellation token
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// Cancel marks the token as cancelled
func (ct *CancellationToken) Cancel() {
	ct.cancelled.Store(true)
}

// IsCancelled returns true if the token has been cancelled. A nil token is never cancelled.
func (ct *CancellationToken) IsCancelled() bool {
	if ct == nil {
		return false
	}
	return ct.cancelled.Load()
}

// Shutdown lets a token be registered with the shutdown manager.
func (ct *CancellationToken) Shutdown() {
	ct.Cancel()
}

// ValidationError represents a job validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Error returns the error message
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for '%s' with value '%v': %s",
		ve.Field, ve.Value, ve.Message)
}

// Unwrap lets callers match any validation failure with errors.Is(err, ErrInvalidJob).
func (ve *ValidationError) Unwrap() error {
	return ErrInvalidJob
}
