// Package models provides model runners for expression calls such as
// dtmi:com:example:chiller;1(temperature, load).
//
// Each call argument becomes one row, so a runner sees one single value row
// per argument in call order.
package models

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/types"
)

// Prefix starts every model id.
const Prefix = "dtmi:"

var (
	// ErrInvalidID is returned for ids without the dtmi: prefix.
	ErrInvalidID = errors.New("invalid model id")
	// ErrArity is returned when a model gets the wrong number of inputs.
	ErrArity = errors.New("wrong number of model inputs")
)

// Registry maps model ids to runners. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]evaluator.ModelRunner
	ids     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		runners: make(map[string]evaluator.ModelRunner),
		ids:     make(map[string]string),
	}
}

// Register stores runner under id. Ids are matched case-insensitively and
// must start with dtmi:.
func (r *Registry) Register(id string, runner evaluator.ModelRunner) error {
	if !strings.HasPrefix(strings.ToLower(id), Prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if runner == nil {
		return fmt.Errorf("model %s: nil runner", id)
	}
	key := strings.ToLower(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[key] = runner
	r.ids[key] = id
	return nil
}

// Lookup is an evaluator.ModelResolver. Unknown ids resolve to nil.
func (r *Registry) Lookup(id string) evaluator.ModelRunner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runners[strings.ToLower(id)]
}

// IDs returns the registered ids as written, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Values(r.ids))
}

// Close releases runners that hold resources.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, runner := range r.runners {
		if c, ok := runner.(interface{ Close(context.Context) error }); ok {
			errs = append(errs, c.Close(ctx))
		}
	}
	return errors.Join(errs...)
}

// inputs flattens rows to their first values. ok is false when any input is
// not a number.
func inputs(rows [][]types.Value) (xs []float64, ok bool) {
	xs = make([]float64, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, false
		}
		f, isNum := row[0].ToFloat()
		if !isNum {
			return nil, false
		}
		xs[i] = f
	}
	return xs, true
}

// Linear is the model bias + sum(weights[i] * x[i]).
type Linear struct {
	Weights []float64
	Bias    float64
}

// Run evaluates the model. Non-numeric inputs give Undefined.
func (m Linear) Run(_ context.Context, rows [][]types.Value) (types.Value, error) {
	if len(rows) != len(m.Weights) {
		return types.Undefined, fmt.Errorf("%w: got %d, want %d", ErrArity, len(rows), len(m.Weights))
	}
	xs, ok := inputs(rows)
	if !ok {
		return types.Undefined, nil
	}
	y := m.Bias
	for i, w := range m.Weights {
		y += w * xs[i]
	}
	return types.NumberValue(y), nil
}
