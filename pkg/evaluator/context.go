package evaluator

import (
	"maps"
	"slices"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Env is a scoped variable environment. Lookups walk from the innermost
// scope outwards, so a pushed scope shadows its parents.
type Env struct {
	parent   *Env
	bindings map[string]types.Value
}

// NewEnv creates a root environment, optionally seeded with values.
func NewEnv(values map[string]any) *Env {
	env := &Env{bindings: make(map[string]types.Value, len(values))}
	for name, v := range values {
		env.bindings[name] = types.FromAny(v)
	}
	return env
}

// Push returns a child scope of e.
func (e *Env) Push() *Env {
	return &Env{parent: e, bindings: make(map[string]types.Value)}
}

// Parent returns the enclosing scope, nil for the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Assign binds name in this scope.
func (e *Env) Assign(name string, v types.Value) *Env {
	e.bindings[name] = v
	return e
}

// Get looks name up in this scope and its parents.
func (e *Env) Get(name string) (types.Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.bindings[name]; ok {
			return v, true
		}
	}
	return types.Undefined, false
}

// Names returns every visible variable name, sorted.
func (e *Env) Names() []string {
	seen := map[string]struct{}{}
	for s := e; s != nil; s = s.parent {
		for name := range s.bindings {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Property makes an Env usable as a PropertySource.
func (e *Env) Property(name string) (types.Value, bool) {
	return e.Get(name)
}

// EvalContext is the state of a single evaluation.
type EvalContext struct {
	source any

	// scope holds Each bindings; it shadows the source.
	scope *Env

	depth int
}

// NewContext creates an evaluation context over source.
func NewContext(source any) *EvalContext {
	return &EvalContext{source: source}
}

// Source returns the evaluation source.
func (c *EvalContext) Source() any {
	return c.source
}

// Depth returns the current recursion depth.
func (c *EvalContext) Depth() int {
	return c.depth
}

// withBinding returns a child context where name is bound to v.
func (c *EvalContext) withBinding(name string, v types.Value) *EvalContext {
	child := *c
	if c.scope == nil {
		child.scope = NewEnv(nil)
	} else {
		child.scope = c.scope.Push()
	}
	child.scope.Assign(name, v)
	return &child
}

func (c *EvalContext) binding(name string) (types.Value, bool) {
	if c.scope == nil {
		return types.Undefined, false
	}
	return c.scope.Get(name)
}
