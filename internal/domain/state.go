// Package domain contains pure, dependency-free domain models and types
// for the score combination engine.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
// Units use it to address their configurable output slots.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the string the key is stored under.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used throughout a combination run.
var (
	// KeyScores stores the continuous score matrix produced by the ensemble.
	KeyScores = Key[*ScoreMatrix]{"scores"}

	// KeyLabels stores a discrete label matrix for majority vote.
	KeyLabels = Key[*ScoreMatrix]{"labels"}

	// KeyWeights stores per-estimator weights shared by weighted combiners.
	KeyWeights = Key[WeightVector]{"weights"}

	// KeyPlanID stores the identifier of the plan being executed.
	KeyPlanID = Key[string]{"execution.plan_id"}

	// KeyExecutionID stores a unique identifier for this specific execution
	// instance, useful for tracing and correlation.
	KeyExecutionID = Key[string]{"execution.execution_id"}
)

// cloner is implemented by domain values whose unexported fields would be
// lost by the reflective copy.
type cloner interface{ cloneValue() any }

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	if c, ok := value.(cloner); ok {
		if v := reflect.ValueOf(value); v.Kind() == reflect.Ptr && v.IsNil() {
			return value
		}
		return c.cloneValue()
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		newMap := reflect.MakeMap(v.Type())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	default:
		return value
	}
}

// State represents an immutable collection of combination data that flows
// through the pipeline. It uses copy-on-write semantics to ensure
// thread-safety and prevent unintended mutations. State is the primary
// data structure for passing matrices and results between Units.
type State struct {
	// data holds the key-value pairs that make up the state.
	// It is unexported to maintain immutability guarantees.
	data map[string]any
}

// NewState creates a new empty State.
// The returned State is ready to use and can be safely shared across
// goroutines.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	scores, ok := Get(state, KeyScores)
//	if !ok {
//	    // handle missing matrix
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// MustGet is like Get but returns a StateError describing why the value
// could not be produced.
func MustGet[T any](s State, key Key[T]) (T, error) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, NewStateError(key.name, "Get", ErrKeyNotFound)
	}
	val, ok := deepCopyValue(value).(T)
	if !ok {
		return zero, NewStateError(key.name, "Get",
			fmt.Errorf("%w: stored %T", ErrInvalidState, value))
	}
	return val, nil
}

// With creates a new State with the specified key-value pair added or
// updated. It implements copy-on-write semantics, returning a new State
// instance while leaving the original unchanged.
//
// Example:
//
//	next := With(state, KeyScores, matrix)
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added
// or updated in a single clone.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Merge returns a new State holding the union of s and every other state.
// Later states win on key collisions.
func (s State) Merge(others ...State) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	for _, o := range others {
		maps.Copy(newData, o.data)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.data))
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.Keys())
}

// ExecutionContext contains metadata about the current combination run
// that flows through the State. It provides consistent access to execution
// metadata for middleware and observability.
type ExecutionContext struct {
	// PlanID is the name of the combination plan being executed.
	PlanID string

	// ExecutionID is a unique identifier for this specific execution instance.
	ExecutionID string
}

// WithExecutionContext creates a new State with execution context metadata.
func (s State) WithExecutionContext(ctx ExecutionContext) State {
	return s.WithMultiple(map[string]any{
		KeyPlanID.name:      ctx.PlanID,
		KeyExecutionID.name: ctx.ExecutionID,
	})
}

// GetExecutionContext extracts execution context metadata from the State.
// It returns false if either field is missing.
func (s State) GetExecutionContext() (ExecutionContext, bool) {
	planID, ok1 := Get(s, KeyPlanID)
	executionID, ok2 := Get(s, KeyExecutionID)
	if !ok1 || !ok2 {
		return ExecutionContext{}, false
	}
	return ExecutionContext{PlanID: planID, ExecutionID: executionID}, true
}
