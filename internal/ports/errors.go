package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors.
var (
	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrMissingInput indicates that a unit found no score matrix under
	// its input key.
	ErrMissingInput = errors.New("missing input")

	// ErrCanceled indicates that execution stopped because its context
	// was done.
	ErrCanceled = errors.New("execution canceled")
)

// UnitError reports a failure of a single unit inside a plan.
type UnitError struct {
	// UnitID is the plan-level identifier of the failing unit.
	UnitID string

	// Strategy is the combination strategy the unit runs.
	Strategy string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for UnitError.
func (e *UnitError) Error() string {
	return fmt.Sprintf("unit error: unit=%s, strategy=%s, err=%v", e.UnitID, e.Strategy, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnitError) Unwrap() error { return e.Err }

// NewUnitError creates a new UnitError with the given details.
func NewUnitError(unitID, strategy string, err error) *UnitError {
	return &UnitError{
		UnitID:   unitID,
		Strategy: strategy,
		Err:      err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
