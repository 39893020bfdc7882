package application

import (
	"context"

	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

var _ ports.Executable = (*UnitAdapter)(nil)

// UnitAdapter wraps a ports.Unit to implement the ports.Executable
// interface, so units can be placed in pipelines and layers.
type UnitAdapter struct {
	// unit performs the actual work when Execute is called.
	unit ports.Unit
	// id is the unique identifier for this adapter within the plan, used
	// for referencing and error reporting.
	id string
}

// NewUnitAdapter creates a new adapter that wraps a ports.Unit to
// implement the ports.Executable interface.
func NewUnitAdapter(unit ports.Unit, id string) *UnitAdapter {
	return &UnitAdapter{
		unit: unit,
		id:   id,
	}
}

// Execute delegates to the underlying unit. Failures are returned as a
// *ports.UnitError naming the adapter ID and the unit's strategy.
func (ua *UnitAdapter) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	out, err := ua.unit.Execute(ctx, state)
	if err != nil {
		return state, ports.NewUnitError(ua.id, strategyOf(ua.unit), err)
	}
	return out, nil
}

// ID returns the unique string identifier for this adapter.
func (ua *UnitAdapter) ID() string { return ua.id }

// Unit returns the wrapped unit.
func (ua *UnitAdapter) Unit() ports.Unit { return ua.unit }

func strategyOf(u ports.Unit) string {
	if s, ok := u.(ports.Strategist); ok {
		return s.Strategy()
	}
	return "unknown"
}
