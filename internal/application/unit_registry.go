package application

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ahrav/go-combo/infrastructure/units"
	"github.com/ahrav/go-combo/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// Built-in unit type names.
const (
	TypeAverage      = "average"
	TypeMaxPool      = "max_pool"
	TypeMedianPool   = "median_pool"
	TypeAOM          = "aom"
	TypeMOA          = "moa"
	TypeMajorityVote = "majority_vote"
)

// DefaultUnitRegistry implements the UnitRegistry interface providing
// a factory for creating combination units based on type and
// configuration. It supports dynamic registration of unit factories.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultUnitRegistry creates a new unit registry with every built-in
// combination strategy registered.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	registry := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
	}
	registry.registerBuiltinFactories()
	return registry
}

func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	r.factories[TypeAverage] = units.NewAverageFromConfig
	r.factories[TypeMaxPool] = units.NewMaxPoolFromConfig
	r.factories[TypeMedianPool] = units.NewMedianPoolFromConfig
	r.factories[TypeAOM] = units.NewAOMFromConfig
	r.factories[TypeMOA] = units.NewMOAFromConfig
	r.factories[TypeMajorityVote] = units.NewMajorityVoteFromConfig
}

// CreateUnit creates a new unit instance based on the provided type,
// identifier, and configuration.
// An unknown type yields a *domain.UnsupportedStrategyError suggesting the
// closest registered type.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	config map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, unsupportedType(unitType, r.GetSupportedTypes())
	}

	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}

	if config == nil {
		config = make(map[string]any)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}

	return unit, nil
}

// RegisterUnitFactory registers a new factory function for a specific unit
// type, replacing any existing factory for that type.
func (r *DefaultUnitRegistry) RegisterUnitFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[unitType] = factory
	return nil
}

// GetSupportedTypes returns every registered unit type in sorted order.
func (r *DefaultUnitRegistry) GetSupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.factories))
}
