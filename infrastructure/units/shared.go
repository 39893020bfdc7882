// Package units provides the combination units that implement the
// ports.Unit interface for the go-combo engine. Each unit reads a score
// matrix from the State, reduces it with one strategy from the combine
// package, and stores the combined scores under its output key.
package units

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

// Common errors returned by units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// IOConfig holds the settings every unit shares: where the matrix is read
// from, where the result is written, and how many goroutines reduce rows.
// It is inlined into each unit's configuration.
type IOConfig struct {
	// InputKey names the State entry holding the input matrix.
	// Empty selects the unit's default input (scores, or labels for
	// majority vote).
	InputKey string `yaml:"input_key,omitempty" json:"input_key,omitempty" validate:"omitempty,min=1,max=100"`

	// OutputKey names the State entry the combined scores are written to.
	// Empty selects the unit name.
	OutputKey string `yaml:"output_key,omitempty" json:"output_key,omitempty" validate:"omitempty,min=1,max=100"`

	// Workers fans rows out over up to this many goroutines.
	// 0 and 1 reduce on the calling goroutine.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty" validate:"min=0,max=1024"`
}

// inputKey resolves the State key a unit reads its matrix from.
func (c IOConfig) inputKey(fallback domain.Key[*domain.ScoreMatrix]) domain.Key[*domain.ScoreMatrix] {
	if c.InputKey == "" {
		return fallback
	}
	return domain.NewKey[*domain.ScoreMatrix](c.InputKey)
}

// outputKey resolves the State key a unit named name writes to.
func (c IOConfig) outputKey(name string) domain.Key[domain.CombinedScores] {
	if c.OutputKey == "" {
		return domain.NewKey[domain.CombinedScores](name)
	}
	return domain.NewKey[domain.CombinedScores](c.OutputKey)
}

// readMatrix fetches the matrix stored under key.
func readMatrix(state domain.State, key domain.Key[*domain.ScoreMatrix]) (*domain.ScoreMatrix, error) {
	m, err := domain.MustGet(state, key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: no matrix under %q", ports.ErrMissingInput, key.Name())
		}
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix under %q", ports.ErrMissingInput, key.Name())
	}
	return m, nil
}

// resolveWeights prefers configured weights and falls back to the shared
// weights in the State. nil means unweighted.
func resolveWeights(state domain.State, configured domain.WeightVector) domain.WeightVector {
	if configured != nil {
		return configured
	}
	w, _ := domain.Get(state, domain.KeyWeights)
	return w
}

// checkContext reports whether execution may start.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrCanceled, err)
	}
	return nil
}

// decodeStrict decodes YAML into out, rejecting unknown fields so that
// typos in plan parameters fail loudly. Empty input leaves out unchanged.
func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeNode overlays a parameters node onto cfg.
func decodeNode(params yaml.Node, cfg any) error {
	if params.Kind == 0 {
		return nil
	}
	data, err := yaml.Marshal(&params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	if err := decodeStrict(data, cfg); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	return nil
}

// decodeMap overlays a configuration map onto cfg through a YAML round trip.
func decodeMap(config map[string]any, cfg any) error {
	if len(config) == 0 {
		return nil
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := decodeStrict(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// validateConfig runs the struct validator and wraps its report.
func validateConfig(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
