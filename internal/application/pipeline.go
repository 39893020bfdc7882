package application

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-combo/internal/domain"
	"github.com/ahrav/go-combo/internal/ports"
)

var (
	_ ports.Pipeline = (*Pipeline)(nil)
	_ ports.Layer    = (*Layer)(nil)
)

// Pipeline is a sequential execution container that processes executables
// in strict order, where each executable's output becomes the input for
// the next executable in the sequence.
// Use Pipeline when units must run in declaration order, for example when
// a later unit overwrites an output key an earlier unit wrote.
type Pipeline struct {
	// id is the unique identifier for this pipeline, used in error reports.
	id string
	// executables contains the ordered list of components that will execute
	// sequentially, with data flowing from one to the next.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// mu provides thread-safe access to the executables slice during
	// concurrent read and write operations.
	mu sync.RWMutex
}

// NewPipeline creates a new sequential execution pipeline with the specified
// identifier, ready to accept executable components.
// The pipeline will execute added components in the order they were added.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute processes all executables in this pipeline sequentially,
// passing the output state from each executable as input to the next.
// Execute checks for context cancellation before every executable.
// Execute returns an error if any executable fails, including the
// executable ID in the error message for debugging.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	executables := p.Executables()

	current := state
	for _, exec := range executables {
		if err := ctx.Err(); err != nil {
			return current, fmt.Errorf("pipeline %s: %w: %w", p.id, ports.ErrCanceled, err)
		}
		next, err := exec.Execute(ctx, current)
		if err != nil {
			return current, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, exec.ID(), err)
		}
		current = next
	}

	return current, nil
}

// ID returns the unique string identifier for this pipeline.
func (p *Pipeline) ID() string { return p.id }

// Add appends an executable to the end of this pipeline's execution
// sequence.
// Add returns an error if the executable is nil or if an executable
// with the same ID already exists in the pipeline.
// Add is safe for concurrent use with Execute.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	execID := exec.ID()
	if _, exists := p.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", execID)
	}

	p.executables = append(p.executables, exec)
	p.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the ordered list of executables in this
// pipeline. The returned slice is safe to modify without affecting the
// pipeline.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Executable, len(p.executables))
	copy(result, p.executables)
	return result
}

// Layer is a parallel execution container that runs independent
// executables concurrently over the same input state.
// Use Layer when several strategies read the same matrix and write
// disjoint output keys.
type Layer struct {
	// id is the unique identifier for this layer, used in error reports.
	id string
	// executables contains the components that will execute concurrently,
	// all receiving the same input state.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// mergeStrategy defines how to combine results from parallel executions.
	// If nil, unionMergeStrategy is used.
	mergeStrategy ports.MergeStrategy
	// concurrencyLimit controls the maximum number of concurrent executions.
	concurrencyLimit int
	mu               sync.RWMutex
}

// NewLayer creates a new parallel execution layer with the specified
// identifier. The concurrency limit defaults to twice the CPU count.
func NewLayer(id string) *Layer {
	return &Layer{
		id:               id,
		executables:      make([]ports.Executable, 0),
		idSet:            make(map[string]struct{}),
		concurrencyLimit: runtime.NumCPU() * 2,
	}
}

// Execute runs all executables in this layer concurrently, with each
// executable receiving the same input state.
// Every executable runs to completion even when a sibling fails, so the
// returned error reports all failures. On success the output states are
// merged in the order the executables were added, which keeps the result
// independent of scheduling.
func (l *Layer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	l.mu.RLock()
	executables := make([]ports.Executable, len(l.executables))
	copy(executables, l.executables)
	limit := l.concurrencyLimit
	strategy := l.mergeStrategy
	l.mu.RUnlock()

	if len(executables) == 0 {
		return state, nil
	}
	if err := ctx.Err(); err != nil {
		return state, fmt.Errorf("layer %s: %w: %w", l.id, ports.ErrCanceled, err)
	}
	if limit <= 0 {
		limit = runtime.NumCPU() * 2
	}

	states := make([]domain.State, len(executables))
	errs := make([]error, len(executables))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, exec := range executables {
		g.Go(func() error {
			out, err := exec.Execute(ctx, state)
			if err != nil {
				errs[i] = fmt.Errorf("executable %s: %w", exec.ID(), err)
				return nil
			}
			states[i] = out
			return nil
		})
	}
	_ = g.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return state, fmt.Errorf("layer %s failed with %d errors: %w", l.id, len(multierr.Errors(err)), err)
	}

	if strategy == nil {
		strategy = unionMergeStrategy{}
	}
	merged, err := strategy.Merge(state, states)
	if err != nil {
		return state, fmt.Errorf("layer %s: merge failed: %w", l.id, err)
	}
	return merged, nil
}

// ID returns the unique string identifier for this layer.
func (l *Layer) ID() string { return l.id }

// Add includes an executable in this layer's parallel execution group.
// Add returns an error if the executable is nil or if an executable
// with the same ID already exists in the layer.
// Add is safe for concurrent use with Execute.
func (l *Layer) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to layer")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	execID := exec.ID()
	if _, exists := l.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in layer", execID)
	}

	l.executables = append(l.executables, exec)
	l.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the executables of this layer in the
// order they were added.
func (l *Layer) Executables() []ports.Executable {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]ports.Executable, len(l.executables))
	copy(result, l.executables)
	return result
}

// SetMergeStrategy configures how parallel execution results are combined.
// If not set, the union of all output states is taken, later executables
// winning on conflicting keys.
func (l *Layer) SetMergeStrategy(strategy ports.MergeStrategy) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mergeStrategy = strategy
}

// SetConcurrencyLimit configures the maximum number of executables that
// can run concurrently within this layer. Values of 0 or below restore
// the default of twice the CPU count.
func (l *Layer) SetConcurrencyLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.concurrencyLimit = limit
}

// unionMergeStrategy merges every output state over the base state.
type unionMergeStrategy struct{}

func (unionMergeStrategy) Merge(base domain.State, states []domain.State) (domain.State, error) {
	return base.Merge(states...), nil
}
