package units

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-combo/internal/combine"
	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

var (
	_ ports.Unit      = (*MaxPoolUnit)(nil)
	_ ports.DataFlow  = (*MaxPoolUnit)(nil)
	_ domain.Combiner = (*MaxPoolUnit)(nil)
)

// MaxPoolUnit combines estimator scores by keeping the largest score of
// each sample (maximization).
// The unit is stateless and safe for concurrent execution.
type MaxPoolUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config MaxPoolConfig
}

// MaxPoolConfig defines the configuration parameters for the MaxPoolUnit.
type MaxPoolConfig struct {
	IOConfig `yaml:",inline"`
}

// NewMaxPoolUnit creates a new MaxPoolUnit with the specified configuration.
func NewMaxPoolUnit(name string, config MaxPoolConfig) (*MaxPoolUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &MaxPoolUnit{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *MaxPoolUnit) Name() string { return u.name }

// InputKey returns the State key the unit reads.
func (u *MaxPoolUnit) InputKey() string { return u.config.inputKey(domain.KeyScores).Name() }

// OutputKey returns the State key the unit writes.
func (u *MaxPoolUnit) OutputKey() string { return u.config.outputKey(u.name).Name() }

// Strategy reports the combination strategy for instrumentation.
func (u *MaxPoolUnit) Strategy() string { return "maximization" }

// Execute stores the row-wise maximum of the input matrix under the unit's
// output key.
func (u *MaxPoolUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := checkContext(ctx); err != nil {
		return state, err
	}
	scores, err := readMatrix(state, u.config.inputKey(domain.KeyScores))
	if err != nil {
		return state, err
	}

	combined, err := u.Combine(scores)
	if err != nil {
		return state, fmt.Errorf("maximization failed: %w", err)
	}

	return domain.With(state, u.config.outputKey(u.name), combined), nil
}

// Combine implements domain.Combiner.
func (u *MaxPoolUnit) Combine(scores *domain.ScoreMatrix) (domain.CombinedScores, error) {
	return combine.Maximization(scores, combine.WithWorkers(u.config.Workers))
}

// Validate checks if the unit is properly configured.
func (u *MaxPoolUnit) Validate() error {
	return validateConfig(u.config)
}

// UnmarshalParameters overlays YAML parameters onto the unit's configuration
// with unknown field detection.
func (u *MaxPoolUnit) UnmarshalParameters(params yaml.Node) error {
	config := u.config
	if err := decodeNode(params, &config); err != nil {
		return err
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	u.config = config
	return nil
}

// DefaultMaxPoolConfig returns a MaxPoolConfig reading domain.KeyScores.
func DefaultMaxPoolConfig() MaxPoolConfig {
	return MaxPoolConfig{}
}

// NewMaxPoolFromConfig creates a MaxPoolUnit from a configuration map.
func NewMaxPoolFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultMaxPoolConfig()
	if err := decodeMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewMaxPoolUnit(id, cfg)
}
