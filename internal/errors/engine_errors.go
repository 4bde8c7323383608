package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Fatal errors that abort a run before or during simulation
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryDataOrder     ErrorCategory = "DATA_ORDER"
	ErrorCategoryInvariant     ErrorCategory = "INVARIANT"

	// Non-fatal errors surfaced to the caller of a single operation
	ErrorCategoryData     ErrorCategory = "DATA"
	ErrorCategoryStrategy ErrorCategory = "STRATEGY"
)

// EngineError is a categorized error with component and operation context.
// Trade rejections are NOT errors: ValidateTrade reports them as a normal
// (approved, reason) outcome.
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsFatal returns whether this error should terminate the run
func (e *EngineError) IsFatal() bool {
	return e.Category == ErrorCategoryConfiguration ||
		e.Category == ErrorCategoryDataOrder ||
		e.Category == ErrorCategoryInvariant
}

// NewEngineError creates a new categorized engine error
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// WrapError wraps an existing error with engine error context
func WrapError(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewConfigurationError reports an invalid or missing configuration value.
// Always fatal, raised before any simulation step.
func NewConfigurationError(operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryConfiguration, "config", operation, message)
}

// NewDataOrderError reports an out-of-sequence or malformed bar. The run is
// aborted; partial results remain valid but are marked incomplete.
func NewDataOrderError(operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryDataOrder, "engine", operation, message)
}

// NewInvariantViolation reports a risk-state invariant broken despite
// validation. Indicates a logic defect and is never silently clamped.
func NewInvariantViolation(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryInvariant, component, operation, message)
}

// IsCategory reports whether err (or anything it wraps) is an EngineError
// of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var engErr *EngineError
	if errors.As(err, &engErr) {
		return engErr.Category == category
	}
	return false
}
