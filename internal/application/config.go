package application

import (
	"gopkg.in/yaml.v3"
)

// PlanConfig is the declarative form of a combination plan: a set of
// combination units and the stages that run them.
// Use PlanConfig when several strategies should be applied to the same
// score matrix in one run, sequentially or side by side.
type PlanConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the plan.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Units declares every combination unit the plan may run.
	Units []UnitConfig `yaml:"units" validate:"required,min=1,dive"`
	// Stages orders the units. When empty, every unit runs sequentially
	// in declaration order.
	Stages []StageConfig `yaml:"stages,omitempty" validate:"omitempty,dive"`
}

// Metadata provides descriptive information about a plan to support
// organization and discovery.
type Metadata struct {
	// Name identifies the plan and is recorded as the plan ID of every
	// execution.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a free-form explanation of the plan's purpose.
	Description string `yaml:"description,omitempty" validate:"max=1000"`
	// Tags are categorical labels that enable filtering and grouping.
	Tags []string `yaml:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for integration with external
	// systems.
	Labels map[string]string `yaml:"labels,omitempty" validate:"max=50"`
}

// UnitConfig declares a single combination unit.
type UnitConfig struct {
	// ID is the unique identifier for this unit within the plan. It also
	// names the unit's default output key.
	ID string `yaml:"id" validate:"required,identifier"`
	// Type selects the registered unit factory, for example "average"
	// or "aom".
	Type string `yaml:"type" validate:"required,min=1,max=100"`
	// Parameters holds type-specific configuration decoded by the unit
	// itself, so unknown or invalid fields are reported per unit type.
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// StageConfig groups units that run together.
type StageConfig struct {
	// ID is the unique identifier of the stage within the plan.
	ID string `yaml:"id" validate:"required,identifier"`
	// Parallel runs the stage's units concurrently over the same input
	// state. Otherwise they run in the listed order, each seeing the
	// previous unit's output.
	Parallel bool `yaml:"parallel,omitempty"`
	// Units lists unit IDs in execution order.
	Units []string `yaml:"units" validate:"required,min=1,dive,required"`
}

// stages returns the configured stages, or a single sequential stage
// over every unit when none are declared.
func (c *PlanConfig) stages() []StageConfig {
	if len(c.Stages) > 0 {
		return c.Stages
	}
	ids := make([]string, 0, len(c.Units))
	for _, u := range c.Units {
		ids = append(ids, u.ID)
	}
	return []StageConfig{{ID: "default", Units: ids}}
}
