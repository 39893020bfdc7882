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
	_ ports.Unit      = (*AverageUnit)(nil)
	_ ports.DataFlow  = (*AverageUnit)(nil)
	_ domain.Combiner = (*AverageUnit)(nil)
)

// AverageUnit combines estimator scores with the row-wise arithmetic mean,
// weighted when weights are configured or present in the State.
//
// Weights from the configuration take precedence over domain.KeyWeights.
// The unit is stateless and safe for concurrent execution.
type AverageUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config AverageConfig
}

// AverageConfig defines the configuration parameters for the AverageUnit.
type AverageConfig struct {
	IOConfig `yaml:",inline"`

	// Weights holds one non-negative weight per estimator.
	// Nil averages without weights.
	Weights domain.WeightVector `yaml:"weights,omitempty" json:"weights,omitempty" validate:"omitempty,min=1,dive,gte=0"`
}

// NewAverageUnit creates a new AverageUnit with the specified configuration.
// Returns an error if the name is empty or configuration validation fails.
func NewAverageUnit(name string, config AverageConfig) (*AverageUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &AverageUnit{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *AverageUnit) Name() string { return u.name }

// InputKey returns the State key the unit reads.
func (u *AverageUnit) InputKey() string { return u.config.inputKey(domain.KeyScores).Name() }

// OutputKey returns the State key the unit writes.
func (u *AverageUnit) OutputKey() string { return u.config.outputKey(u.name).Name() }

// Strategy reports the combination strategy for instrumentation.
func (u *AverageUnit) Strategy() string { return "average" }

// Execute averages the input matrix and stores the result under the
// unit's output key.
func (u *AverageUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := checkContext(ctx); err != nil {
		return state, err
	}
	scores, err := readMatrix(state, u.config.inputKey(domain.KeyScores))
	if err != nil {
		return state, err
	}

	combined, err := combine.Average(scores, resolveWeights(state, u.config.Weights),
		combine.WithWorkers(u.config.Workers))
	if err != nil {
		return state, fmt.Errorf("average failed: %w", err)
	}

	return domain.With(state, u.config.outputKey(u.name), combined), nil
}

// Combine implements domain.Combiner using the configured weights only.
func (u *AverageUnit) Combine(scores *domain.ScoreMatrix) (domain.CombinedScores, error) {
	return combine.Average(scores, u.config.Weights, combine.WithWorkers(u.config.Workers))
}

// Validate checks the configuration. Weight length can only be checked
// once the matrix is known.
func (u *AverageUnit) Validate() error {
	return validateConfig(u.config)
}

// UnmarshalParameters overlays YAML parameters onto the unit's configuration
// with unknown field detection. The configuration is unchanged on error.
func (u *AverageUnit) UnmarshalParameters(params yaml.Node) error {
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

// DefaultAverageConfig returns an unweighted average reading domain.KeyScores.
func DefaultAverageConfig() AverageConfig {
	return AverageConfig{}
}

// NewAverageFromConfig creates an AverageUnit from a configuration map.
// This is the boundary adapter for YAML/JSON configuration.
func NewAverageFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultAverageConfig()
	if err := decodeMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewAverageUnit(id, cfg)
}
