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
	_ ports.Unit      = (*BucketUnit)(nil)
	_ ports.DataFlow  = (*BucketUnit)(nil)
	_ domain.Combiner = (*BucketUnit)(nil)
)

// BucketUnit runs one of the two-stage bucket combinations, AOM (average of
// maximum) or MOA (maximum of average), over the input matrix.
//
// Without a seed every execution draws a fresh bucket assignment from the
// process-wide generator. With a seed every execution reproduces the same
// assignment, so a plan run twice over the same scores gives identical
// output.
type BucketUnit struct {
	name   string
	mode   combine.Mode
	config BucketConfig
}

// BucketConfig defines the configuration parameters for AOM and MOA units.
type BucketConfig struct {
	IOConfig `yaml:",inline"`

	// Buckets is the number of estimator subgroups.
	Buckets int `yaml:"buckets" json:"buckets" validate:"min=2,max=100000"`

	// Method is "static" (equal bucket sizes) or "dynamic" (random sizes).
	Method combine.Method `yaml:"method" json:"method"`

	// Bootstrap samples each static bucket independently.
	Bootstrap bool `yaml:"bootstrap" json:"bootstrap"`

	// Seed makes the bucket assignment reproducible when set.
	Seed *uint64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// options translates the configuration into a fresh combine.BucketOptions.
// A seeded configuration gets a newly seeded generator on every call.
func (c BucketConfig) options() combine.BucketOptions {
	opts := combine.BucketOptions{
		Buckets:   c.Buckets,
		Method:    c.Method,
		Bootstrap: c.Bootstrap,
		Workers:   c.Workers,
	}
	if c.Seed != nil {
		opts = opts.WithSeed(*c.Seed)
	}
	return opts
}

func (c BucketConfig) validate() error {
	if err := validateConfig(c); err != nil {
		return err
	}
	if _, err := combine.ParseMethod(c.Method.String()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// NewBucketUnit creates a bucket unit for an explicit mode.
func NewBucketUnit(name string, mode combine.Mode, config BucketConfig) (*BucketUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if _, err := combine.ParseMode(mode.String()); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &BucketUnit{name: name, mode: mode, config: config}, nil
}

// NewAOMUnit creates an average-of-maximum unit.
func NewAOMUnit(name string, config BucketConfig) (*BucketUnit, error) {
	return NewBucketUnit(name, combine.AverageOfMax, config)
}

// NewMOAUnit creates a maximum-of-average unit.
func NewMOAUnit(name string, config BucketConfig) (*BucketUnit, error) {
	return NewBucketUnit(name, combine.MaxOfAverage, config)
}

// Name returns the unique identifier for this unit instance.
func (u *BucketUnit) Name() string { return u.name }

// InputKey returns the State key the unit reads.
func (u *BucketUnit) InputKey() string { return u.config.inputKey(domain.KeyScores).Name() }

// OutputKey returns the State key the unit writes.
func (u *BucketUnit) OutputKey() string { return u.config.outputKey(u.name).Name() }

// Strategy reports "aom" or "moa".
func (u *BucketUnit) Strategy() string { return u.mode.String() }

// Execute reduces the input matrix bucket by bucket and stores the result
// under the unit's output key.
func (u *BucketUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := checkContext(ctx); err != nil {
		return state, err
	}
	scores, err := readMatrix(state, u.config.inputKey(domain.KeyScores))
	if err != nil {
		return state, err
	}

	combined, err := u.Combine(scores)
	if err != nil {
		return state, fmt.Errorf("%s failed: %w", u.mode, err)
	}

	return domain.With(state, u.config.outputKey(u.name), combined), nil
}

// Combine implements domain.Combiner.
func (u *BucketUnit) Combine(scores *domain.ScoreMatrix) (domain.CombinedScores, error) {
	return combine.Buckets(u.mode, scores, u.config.options())
}

// Validate checks the configuration. Whether the bucket count fits the
// ensemble is only known once the matrix arrives.
func (u *BucketUnit) Validate() error {
	return u.config.validate()
}

// UnmarshalParameters overlays YAML parameters onto the unit's configuration
// with unknown field detection. The configuration is unchanged on error.
func (u *BucketUnit) UnmarshalParameters(params yaml.Node) error {
	config := u.config
	if err := decodeNode(params, &config); err != nil {
		return err
	}
	if err := config.validate(); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	u.config = config
	return nil
}

// DefaultBucketConfig returns five static buckets without bootstrap and
// without a seed.
func DefaultBucketConfig() BucketConfig {
	defaults := combine.DefaultBucketOptions()
	return BucketConfig{
		Buckets:   defaults.Buckets,
		Method:    defaults.Method,
		Bootstrap: defaults.Bootstrap,
	}
}

// NewAOMFromConfig creates an AOM unit from a configuration map.
func NewAOMFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := bucketConfigFromMap(config)
	if err != nil {
		return nil, err
	}
	return NewAOMUnit(id, cfg)
}

// NewMOAFromConfig creates an MOA unit from a configuration map.
func NewMOAFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg, err := bucketConfigFromMap(config)
	if err != nil {
		return nil, err
	}
	return NewMOAUnit(id, cfg)
}

func bucketConfigFromMap(config map[string]any) (BucketConfig, error) {
	cfg := DefaultBucketConfig()
	if err := decodeMap(config, &cfg); err != nil {
		return BucketConfig{}, err
	}
	return cfg, nil
}
