package domain

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for the score combination taxonomy. Every typed error
// below unwraps to exactly one of these so callers can branch with
// errors.Is without caring about the carried context.
var (
	// ErrInvalidInput indicates malformed, non-finite, empty or ragged input,
	// invalid weights, or continuous values handed to a discrete combiner.
	ErrInvalidInput = errors.New("invalid input")

	// ErrShapeMismatch indicates an auxiliary vector whose length does not
	// match the estimator dimension of its score matrix.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrParameterRange indicates a numeric parameter outside its valid range.
	ErrParameterRange = errors.New("parameter out of range")

	// ErrUnevenBucket indicates a static bucket partition whose estimator
	// count is not divisible by the bucket count.
	ErrUnevenBucket = errors.New("uneven bucket partition")

	// ErrUnsupportedStrategy indicates an unknown mode, method or combiner name.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")

	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrKeyNotFound indicates that a requested StateKey does not exist.
	ErrKeyNotFound = errors.New("key not found")
)

// InvalidInputError reports why a matrix, weight vector or label matrix
// was rejected.
type InvalidInputError struct {
	// Input names the rejected argument (e.g. "scores", "weights").
	Input string

	// Reason is a short human readable description of the violation.
	Reason string
}

// Error implements the error interface for InvalidInputError.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Input, e.Reason)
}

// Unwrap returns ErrInvalidInput.
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// NewInvalidInputError creates an InvalidInputError with a formatted reason.
func NewInvalidInputError(input, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// ShapeMismatchError reports an auxiliary vector with the wrong length.
type ShapeMismatchError struct {
	// Input names the mismatched argument.
	Input string

	// Expected is the length required by the paired score matrix.
	Expected int

	// Received is the length that was actually supplied.
	Received int
}

// Error implements the error interface for ShapeMismatchError.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s: expected shape (1, %d), received (1, %d)",
		e.Input, e.Expected, e.Received)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// NoUpperBound marks a ParameterRangeError whose range is open above.
const NoUpperBound = math.MaxInt

// ParameterRangeError reports a parameter outside the closed range [Min, Max].
type ParameterRangeError struct {
	Param string
	Value int
	Min   int
	Max   int
}

// Error implements the error interface for ParameterRangeError.
func (e *ParameterRangeError) Error() string {
	if e.Max == NoUpperBound {
		return fmt.Sprintf("parameter out of range: %s=%d, allowed >= %d", e.Param, e.Value, e.Min)
	}
	return fmt.Sprintf("parameter out of range: %s=%d, allowed [%d, %d]", e.Param, e.Value, e.Min, e.Max)
}

// Unwrap returns ErrParameterRange.
func (e *ParameterRangeError) Unwrap() error { return ErrParameterRange }

// UnevenBucketError reports a static partition that does not divide evenly.
type UnevenBucketError struct {
	Estimators int
	Buckets    int
}

// Error implements the error interface for UnevenBucketError.
func (e *UnevenBucketError) Error() string {
	return fmt.Sprintf("uneven bucket partition: %d estimators / %d buckets leaves remainder %d",
		e.Estimators, e.Buckets, e.Estimators%e.Buckets)
}

// Unwrap returns ErrUnevenBucket.
func (e *UnevenBucketError) Unwrap() error { return ErrUnevenBucket }

// UnsupportedStrategyError reports an unknown strategy name. Suggestion holds
// the closest supported name when one is near enough to be useful.
type UnsupportedStrategyError struct {
	// Kind is the family the value was parsed for (e.g. "mode", "method").
	Kind string

	// Value is the offending input, verbatim.
	Value string

	// Suggestion is the closest supported value, or empty.
	Suggestion string
}

// Error implements the error interface for UnsupportedStrategyError.
func (e *UnsupportedStrategyError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unsupported %s %q (did you mean %q?)", e.Kind, e.Value, e.Suggestion)
	}
	return fmt.Sprintf("unsupported %s %q", e.Kind, e.Value)
}

// Unwrap returns ErrUnsupportedStrategy.
func (e *UnsupportedStrategyError) Unwrap() error { return ErrUnsupportedStrategy }

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the name of the state key involved in the failed operation.
	Key string

	// Operation describes what operation was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string

	causes []error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// Add records err as a failure. Unlike AddError, the error itself stays
// reachable through errors.Is and errors.As.
func (e *ValidationError) Add(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err.Error())
	e.causes = append(e.causes, err)
}

// Unwrap returns the errors recorded with Add.
func (e *ValidationError) Unwrap() []error { return e.causes }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
