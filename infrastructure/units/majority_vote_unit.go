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
	_ ports.Unit      = (*MajorityVoteUnit)(nil)
	_ ports.DataFlow  = (*MajorityVoteUnit)(nil)
	_ domain.Combiner = (*MajorityVoteUnit)(nil)
)

// MajorityVoteUnit combines discrete estimator labels by weighted vote.
// It reads domain.KeyLabels unless an input key is configured, and ties
// resolve to the smallest label.
type MajorityVoteUnit struct {
	name   string
	config MajorityVoteConfig
}

// MajorityVoteConfig defines the configuration parameters for the
// MajorityVoteUnit.
type MajorityVoteConfig struct {
	IOConfig `yaml:",inline"`

	// Classes is the expected number of distinct labels. It sizes the vote
	// tally and does not restrict which labels may appear.
	Classes int `yaml:"classes" json:"classes" validate:"min=0,max=100000"`

	// Weights holds one non-negative vote weight per estimator.
	// Nil gives every estimator one vote.
	Weights domain.WeightVector `yaml:"weights,omitempty" json:"weights,omitempty" validate:"omitempty,min=1,dive,gte=0"`
}

// NewMajorityVoteUnit creates a new MajorityVoteUnit with the specified configuration.
func NewMajorityVoteUnit(name string, config MajorityVoteConfig) (*MajorityVoteUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &MajorityVoteUnit{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *MajorityVoteUnit) Name() string { return u.name }

// InputKey returns the State key the unit reads.
func (u *MajorityVoteUnit) InputKey() string { return u.config.inputKey(domain.KeyLabels).Name() }

// OutputKey returns the State key the unit writes.
func (u *MajorityVoteUnit) OutputKey() string { return u.config.outputKey(u.name).Name() }

// Strategy reports the combination strategy for instrumentation.
func (u *MajorityVoteUnit) Strategy() string { return "majority_vote" }

// Execute votes over the label matrix and stores the winning labels under
// the unit's output key.
func (u *MajorityVoteUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if err := checkContext(ctx); err != nil {
		return state, err
	}
	labels, err := readMatrix(state, u.config.inputKey(domain.KeyLabels))
	if err != nil {
		return state, err
	}

	combined, err := combine.MajorityVote(labels, u.config.Classes,
		resolveWeights(state, u.config.Weights), combine.WithWorkers(u.config.Workers))
	if err != nil {
		return state, fmt.Errorf("majority vote failed: %w", err)
	}

	return domain.With(state, u.config.outputKey(u.name), combined), nil
}

// Combine implements domain.Combiner using the configured weights only.
func (u *MajorityVoteUnit) Combine(labels *domain.ScoreMatrix) (domain.CombinedScores, error) {
	return combine.MajorityVote(labels, u.config.Classes, u.config.Weights,
		combine.WithWorkers(u.config.Workers))
}

// Validate checks if the unit is properly configured.
func (u *MajorityVoteUnit) Validate() error {
	return validateConfig(u.config)
}

// UnmarshalParameters overlays YAML parameters onto the unit's configuration
// with unknown field detection. The configuration is unchanged on error.
func (u *MajorityVoteUnit) UnmarshalParameters(params yaml.Node) error {
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

// DefaultMajorityVoteConfig returns an unweighted binary vote over
// domain.KeyLabels.
func DefaultMajorityVoteConfig() MajorityVoteConfig {
	return MajorityVoteConfig{Classes: 2}
}

// NewMajorityVoteFromConfig creates a MajorityVoteUnit from a configuration map.
func NewMajorityVoteFromConfig(id string, config map[string]any) (ports.Unit, error) {
	cfg := DefaultMajorityVoteConfig()
	if err := decodeMap(config, &cfg); err != nil {
		return nil, err
	}
	return NewMajorityVoteUnit(id, cfg)
}
