package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-combo/infrastructure/middleware"
	"github.com/ahrav/go-combo/internal/combine"
	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

// Plan is a compiled combination plan ready to execute. Plans are
// immutable and safe for concurrent use.
type Plan struct {
	name    string
	hash    string
	root    *Pipeline
	outputs []string
}

// Name returns the plan name from its metadata.
func (p *Plan) Name() string { return p.name }

// Hash returns the SHA-256 of the normalized plan configuration.
func (p *Plan) Hash() string { return p.hash }

// Outputs returns the distinct state keys written by the units the stages
// run, in execution order. Declared units that no stage lists are left out.
func (p *Plan) Outputs() []string { return slices.Clone(p.outputs) }

// Stages returns the plan's stages in execution order.
func (p *Plan) Stages() []ports.Executable { return p.root.Executables() }

// Execute runs every stage over state. When state carries no execution
// context, one is added with the plan name and a fresh execution ID.
func (p *Plan) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	if _, ok := state.GetExecutionContext(); !ok {
		state = state.WithExecutionContext(domain.ExecutionContext{
			PlanID:      p.name,
			ExecutionID: uuid.NewString(),
		})
	}
	return p.root.Execute(ctx, state)
}

// PlanLoader provides YAML parsing, validation, and caching for
// combination plans, transforming declarative YAML into executable plans.
// Use PlanLoader to load plans from files or readers while benefiting
// from SHA256-based caching and aggregated validation.
type PlanLoader struct {
	// validator performs struct field validation and the custom plan
	// rules registered by RegisterPlanValidators.
	validator *validator.Validate
	// unitRegistry creates combination units by type.
	unitRegistry ports.UnitRegistry
	// instrument, when non-nil, wraps every unit with middleware.Instrument.
	instrument []middleware.InstrumentOption
	// cache stores compiled plans indexed by SHA256 hash of the normalized
	// configuration.
	cache   map[string]*Plan
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines request
	// the same plan simultaneously.
	sf singleflight.Group
}

// LoaderOption customizes a PlanLoader.
type LoaderOption func(*PlanLoader)

// WithInstrumentation wraps every loaded unit with tracing, metrics and
// logging configured by opts.
func WithInstrumentation(opts ...middleware.InstrumentOption) LoaderOption {
	return func(pl *PlanLoader) {
		pl.instrument = append([]middleware.InstrumentOption{}, opts...)
	}
}

// NewPlanLoader creates a new plan loader with an empty cache. A nil
// registry selects NewDefaultUnitRegistry.
// NewPlanLoader returns an error if validator registration fails.
func NewPlanLoader(unitRegistry ports.UnitRegistry, opts ...LoaderOption) (*PlanLoader, error) {
	v := validator.New()
	if err := RegisterPlanValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	if unitRegistry == nil {
		unitRegistry = NewDefaultUnitRegistry()
	}

	pl := &PlanLoader{
		validator:    v,
		unitRegistry: unitRegistry,
		cache:        make(map[string]*Plan),
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl, nil
}

// load is the common implementation for loading plans from byte data,
// utilizing singleflight to prevent duplicate compilation and SHA256-based
// caching for efficiency.
func (pl *PlanLoader) load(data []byte) (*Plan, error) {
	config, err := pl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config, not the raw bytes.
	hash, err := pl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := pl.sf.Do(hash, func() (any, error) {
		if plan, ok := pl.getCachedPlan(hash); ok {
			return plan, nil
		}

		if err := pl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		plan, err := pl.buildPlan(config, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to build plan: %w", err)
		}

		pl.cachePlan(hash, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Plan), nil
}

// LoadFromFile loads and compiles a plan from a YAML file.
// LoadFromFile returns an error if file reading, parsing, validation,
// or plan compilation fails.
func (pl *PlanLoader) LoadFromFile(ctx context.Context, path string) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ports.NewConfigError(path, fmt.Errorf("%w: %w", ports.ErrConfigNotFound, err))
	}

	return pl.load(data)
}

// LoadFromReader loads and compiles a plan from an io.Reader, applying the
// same caching and validation as LoadFromFile.
func (pl *PlanLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return pl.load(data)
}

// parseYAML strictly decodes data into a PlanConfig so typos in field
// names are reported instead of ignored.
func (pl *PlanLoader) parseYAML(data []byte) (*PlanConfig, error) {
	var config PlanConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("YAML decode failed: empty document")
		}
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct validation followed by semantic validation.
func (pl *PlanLoader) validateConfig(config *PlanConfig) error {
	if err := pl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := pl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics checks the rules struct tags cannot express: unique
// IDs, known unit types, and stage references. Every problem is reported,
// not just the first.
func (pl *PlanLoader) validateSemantics(config *PlanConfig) error {
	var errs error

	supported := pl.unitRegistry.GetSupportedTypes()
	unitIDs := make(map[string]struct{}, len(config.Units))
	for _, unit := range config.Units {
		if _, exists := unitIDs[unit.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("duplicate unit ID %q", unit.ID))
		}
		unitIDs[unit.ID] = struct{}{}

		if !slices.Contains(supported, unit.Type) {
			errs = multierr.Append(errs, fmt.Errorf("unit %s: %w", unit.ID, unsupportedType(unit.Type, supported)))
		}
	}

	stageIDs := make(map[string]struct{}, len(config.Stages))
	for _, stage := range config.Stages {
		if _, exists := stageIDs[stage.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("duplicate stage ID %q", stage.ID))
		}
		stageIDs[stage.ID] = struct{}{}

		seen := make(map[string]struct{}, len(stage.Units))
		for _, unitID := range stage.Units {
			if _, exists := unitIDs[unitID]; !exists {
				errs = multierr.Append(errs, fmt.Errorf("stage %s references non-existent unit: %s", stage.ID, unitID))
			}
			if _, dup := seen[unitID]; dup {
				errs = multierr.Append(errs, fmt.Errorf("stage %s lists unit %s more than once", stage.ID, unitID))
			}
			seen[unitID] = struct{}{}
		}
	}

	return asValidationError(config.Metadata.Name, errs)
}

// buildPlan creates every unit and assembles the stages. Unit creation
// failures are aggregated so a plan with several bad units reports all
// of them.
func (pl *PlanLoader) buildPlan(config *PlanConfig, hash string) (*Plan, error) {
	units := make(map[string]ports.Unit, len(config.Units))

	var errs error
	for _, unitConfig := range config.Units {
		unit, err := pl.createUnit(unitConfig)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unit %s: %w", unitConfig.ID, err))
			continue
		}
		units[unitConfig.ID] = unit
	}
	if err := asValidationError(config.Metadata.Name, errs); err != nil {
		return nil, err
	}

	root := NewPipeline(config.Metadata.Name)
	var outputs []string
	for _, stage := range config.stages() {
		for _, unitID := range stage.Units {
			if df, ok := units[unitID].(ports.DataFlow); ok && !slices.Contains(outputs, df.OutputKey()) {
				outputs = append(outputs, df.OutputKey())
			}
		}

		exec, err := pl.buildStage(stage, units)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := root.Add(exec); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if err := asValidationError(config.Metadata.Name, errs); err != nil {
		return nil, err
	}

	return &Plan{
		name:    config.Metadata.Name,
		hash:    hash,
		root:    root,
		outputs: outputs,
	}, nil
}

// buildStage turns a stage into a Layer or a Pipeline. Units of a
// parallel stage must write distinct output keys, since their results
// are merged into one state.
func (pl *PlanLoader) buildStage(stage StageConfig, units map[string]ports.Unit) (ports.Executable, error) {
	type container interface {
		ports.Executable
		Add(ports.Executable) error
	}

	var c container = NewPipeline(stage.ID)
	if stage.Parallel {
		c = NewLayer(stage.ID)
	}

	writers := make(map[string]string)
	for _, unitID := range stage.Units {
		unit := units[unitID]
		if stage.Parallel {
			if df, ok := unit.(ports.DataFlow); ok {
				if other, taken := writers[df.OutputKey()]; taken {
					return nil, fmt.Errorf("stage %s: units %s and %s both write %q",
						stage.ID, other, unitID, df.OutputKey())
				}
				writers[df.OutputKey()] = unitID
			}
		}
		if err := c.Add(NewUnitAdapter(unit, unitID)); err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.ID, err)
		}
	}
	return c, nil
}

// createUnit decodes the unit's parameters and delegates creation to the
// unit registry, wrapping the result with instrumentation when enabled.
func (pl *PlanLoader) createUnit(config UnitConfig) (ports.Unit, error) {
	params := make(map[string]any)
	if config.Parameters.Kind != 0 {
		if err := config.Parameters.Decode(&params); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	unit, err := pl.unitRegistry.CreateUnit(config.Type, config.ID, params)
	if err != nil {
		return nil, err
	}

	if pl.instrument != nil {
		return middleware.Instrument(unit, pl.instrument...), nil
	}
	return unit, nil
}

// calculateConfigHash computes the SHA256 hash of a normalized PlanConfig
// so that semantically identical configurations share a cache entry
// regardless of whitespace or comments.
func (pl *PlanLoader) calculateConfigHash(config *PlanConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (pl *PlanLoader) getCachedPlan(hash string) (*Plan, bool) {
	pl.cacheMu.RLock()
	defer pl.cacheMu.RUnlock()

	plan, ok := pl.cache[hash]
	return plan, ok
}

func (pl *PlanLoader) cachePlan(hash string, plan *Plan) {
	pl.cacheMu.Lock()
	defer pl.cacheMu.Unlock()

	pl.cache[hash] = plan
}

// ClearCache removes all cached plans, forcing subsequent loads to
// recompile from source.
func (pl *PlanLoader) ClearCache() {
	pl.cacheMu.Lock()
	defer pl.cacheMu.Unlock()

	pl.cache = make(map[string]*Plan)
}

func unsupportedType(unitType string, supported []string) error {
	return &domain.UnsupportedStrategyError{
		Kind:       "unit type",
		Value:      unitType,
		Suggestion: combine.Suggest(unitType, supported),
	}
}

// asValidationError folds an aggregated multierr error into a single
// *domain.ValidationError for the plan. It returns nil for a nil err.
func asValidationError(planName string, err error) error {
	if err == nil {
		return nil
	}
	verr := domain.NewValidationError("plan " + planName)
	for _, e := range multierr.Errors(err) {
		verr.Add(e)
	}
	return verr
}
