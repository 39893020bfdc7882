// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-combo/internal/domain"
)

// Unit represents the fundamental building block of a combination plan.
// Each Unit reads a score matrix from the State, reduces it with one
// combination strategy, and writes the combined scores back under its own
// output key.
// Units should be stateless and safe for concurrent execution.
type Unit interface {
	// Name returns a unique identifier for this unit.
	// The name is used for logging, metrics, and as the default output key.
	Name() string

	// Execute performs the unit's transformation on the provided State.
	// It returns a new State containing the results of the transformation.
	// The original State must not be modified.
	//
	// The context parameter allows for cancellation and deadline propagation.
	// Units should check the context before doing any work.
	//
	// Example:
	//
	//	newState, err := unit.Execute(ctx, state)
	//	if err != nil {
	//	    return nil, fmt.Errorf("unit %s failed: %w", unit.Name(), err)
	//	}
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// Validate checks if the unit is properly configured and ready for execution.
	// It is typically called during plan construction, before any scores
	// are available, so it can only check the configuration itself.
	Validate() error
}

// Strategist is implemented by units that can report which combination
// strategy they run. Instrumentation uses it to label metrics and spans.
type Strategist interface {
	Strategy() string
}

// DataFlow is implemented by units that can report the State keys they read
// and write. Plans use it to detect output collisions before execution.
type DataFlow interface {
	InputKey() string
	OutputKey() string
}
