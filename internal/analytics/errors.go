package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is matched by every InsufficientDataError
	ErrInsufficientData = errors.New("insufficient data")

	// ErrComputation is matched by every ComputationError
	ErrComputation = errors.New("computation failed")
)

// InsufficientDataError reports that an operation got fewer samples than it needs.
// It is a regular, non-fatal outcome.
type InsufficientDataError struct {
	Operation string
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d samples, have %d",
		e.Operation, e.Required, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientData) work
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// NewInsufficientData creates an InsufficientDataError
func NewInsufficientData(operation string, required, available int) *InsufficientDataError {
	return &InsufficientDataError{
		Operation: operation,
		Required:  required,
		Available: available,
	}
}

// ComputationError reports numeric degeneracy, e.g. a zero-variance channel
type ComputationError struct {
	Operation string
	Reason    string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// Is makes errors.Is(err, ErrComputation) work
func (e *ComputationError) Is(target error) bool {
	return target == ErrComputation
}

// NewComputationError creates a ComputationError
func NewComputationError(operation, reason string) *ComputationError {
	return &ComputationError{
		Operation: operation,
		Reason:    reason,
	}
}
