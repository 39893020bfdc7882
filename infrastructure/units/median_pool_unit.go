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
	_ ports.Unit      = (*MedianPoolUnit)(nil)
	_ ports.DataFlow  = (*MedianPoolUnit)(nil)
	_ domain.Combiner = (*MedianPoolUnit)(nil)
)

// MedianPoolUnit combines estimator scores with the row-wise median.
//
// The median ignores how extreme the outlying estimators are, which makes it
// robust against a minority of badly calibrated detectors. For an even
// number of estimators the two middle scores are averaged.
//
// Concurrency: The unit is stateless and thread-safe for concurrent execution.
// Multiple goroutines may safely call Execute simultaneously.
//
// Error Conditions:
//   - Returns ports.ErrMissingInput when the input key holds no matrix
//   - Returns ports.ErrCanceled when the context is already done
//
// Example:
//
//	unit, err := NewMedianPoolUnit("median", MedianPoolConfig{
//	    IOConfig: IOConfig{OutputKey: "robust", Workers: 4},
//	})
type MedianPoolUnit struct {
	// name is the unique identifier for this unit instance.
	// Used for logging, metrics, and as the default output key.
	name string
	// config contains validated configuration parameters.
	// Immutable after unit creation to ensure thread safety.
	config MedianPoolConfig
}

// MedianPoolConfig defines the configuration parameters for the MedianPoolUnit.
type MedianPoolConfig struct {
	IOConfig `yaml:",inline"`
}

// NewMedianPoolUnit creates a new MedianPoolUnit with the specified configuration.
//
// Parameters:
//   - name: Unique identifier for this unit (used in logs and as output key)
//   - config: Configuration parameters (validated using struct tags)
//
// Returns ErrEmptyUnitName if name is empty, or a wrapped validation error.
func NewMedianPoolUnit(name string, config MedianPoolConfig) (*MedianPoolUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &MedianPoolUnit{
		name:   name,
		config: config,
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (mpu *MedianPoolUnit) Name() string { return mpu.name }

// InputKey returns the State key the unit reads.
func (mpu *MedianPoolUnit) InputKey() string { return mpu.config.inputKey(domain.KeyScores).Name() }

// OutputKey returns the State key the unit writes.
func (mpu *MedianPoolUnit) OutputKey() string { return mpu.config.outputKey(mpu.name).Name() }

// Strategy reports the combination strategy for instrumentation.
func (mpu *MedianPoolUnit) Strategy() string { return "median" }

// Execute computes the row-wise median of the input matrix and stores it
// under the unit's output key. The input State is never modified.
func (mpu *MedianPoolUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := checkContext(ctx); err != nil {
		return state, err
	}
	scores, err := readMatrix(state, mpu.config.inputKey(domain.KeyScores))
	if err != nil {
		return state, err
	}

	combined, err := mpu.Combine(scores)
	if err != nil {
		return state, fmt.Errorf("median failed: %w", err)
	}

	return domain.With(state, mpu.config.outputKey(mpu.name), combined), nil
}

// Combine implements domain.Combiner.
func (mpu *MedianPoolUnit) Combine(scores *domain.ScoreMatrix) (domain.CombinedScores, error) {
	return combine.Median(scores, combine.WithWorkers(mpu.config.Workers))
}

// Validate checks if the unit is properly configured.
func (mpu *MedianPoolUnit) Validate() error {
	return validateConfig(mpu.config)
}

// UnmarshalParameters overlays YAML parameters onto the unit's configuration
// with unknown field detection. The configuration is unchanged on error.
func (mpu *MedianPoolUnit) UnmarshalParameters(params yaml.Node) error {
	config := mpu.config
	if err := decodeNode(params, &config); err != nil {
		return err
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	mpu.config = config
	return nil
}

// DefaultMedianPoolConfig returns a MedianPoolConfig reading domain.KeyScores
// on a single goroutine.
func DefaultMedianPoolConfig() MedianPoolConfig {
	return MedianPoolConfig{}
}

// NewMedianPoolFromConfig creates a MedianPoolUnit from a configuration map.
// This is the boundary adapter for YAML/JSON configuration.
func NewMedianPoolFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultMedianPoolConfig()
	if err := decodeMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewMedianPoolUnit(id, cfg)
}
