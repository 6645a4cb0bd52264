// Package functions provides a registry of host functions callable from
// expression trees.
//
// The evaluator resolves a call against its builtin tables and model
// runners first; names it does not know fall back to any
// [evaluator.FunctionSource]. A *Registry is such a source.
//
// # Example
//
//	reg := functions.NewRegistry()
//	reg.MustRegister(functions.Def{
//	    Name:      "GREET",
//	    Signature: "<s:s>",
//	    Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
//	        return types.StringValue("Hello, " + args[0].Str() + "!"), nil
//	    },
//	})
//	v, err := evaluator.New(evaluator.WithFunctions(reg)).Eval(ctx, types.Fn("greet", types.Str("World")), nil)
//	// v == "Hello, World!"
package functions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Func is the signature of a host function. args are already checked and
// coerced against the definition's signature. A returned error is a hard
// evaluation failure; return types.Undefined for "not determinable".
type Func func(ctx context.Context, args []types.Value) (types.Value, error)

// Def describes a host function.
type Def struct {
	// Name is matched case-insensitively.
	Name string
	// Signature is the optional argument signature, e.g. "<n-n?:n>". Leave
	// empty to accept any arguments unchecked.
	Signature string
	// Doc is a one-line description shown by the CLI.
	Doc string
	// Fn is the implementation.
	Fn Func
}

// ErrInvalidDef is returned by Register for a definition without a name or
// implementation.
var ErrInvalidDef = errors.New("functions: invalid definition")

type entry struct {
	def Def
	sig *Signature
}

// Registry is a set of host functions keyed by upper-cased name.
//
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]entry)}
}

// Register adds defs, replacing any function with the same name. Nothing is
// registered when one of the definitions is invalid.
func (r *Registry) Register(defs ...Def) error {
	entries := make([]entry, 0, len(defs))
	for _, d := range defs {
		if d.Name == "" || d.Fn == nil {
			return fmt.Errorf("%w: %q", ErrInvalidDef, d.Name)
		}
		e := entry{def: d}
		if d.Signature != "" {
			sig, err := ParseSignature(d.Signature)
			if err != nil {
				return fmt.Errorf("function %s: %w", d.Name, err)
			}
			e.sig = sig
		}
		entries = append(entries, e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.defs[strings.ToUpper(e.def.Name)] = e
	}
	return nil
}

// MustRegister is Register that panics on an invalid definition.
func (r *Registry) MustRegister(defs ...Def) {
	if err := r.Register(defs...); err != nil {
		panic(err)
	}
}

// Unregister removes the function called name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.defs, strings.ToUpper(name))
	r.mu.Unlock()
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Def, bool) {
	r.mu.RLock()
	e, ok := r.defs[strings.ToUpper(name)]
	r.mu.RUnlock()
	return e.def, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.defs))
	for _, e := range r.defs {
		names = append(names, e.def.Name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// CallFunction implements evaluator.FunctionSource. Arguments that do not
// match the signature make the call Undefined, like a builtin called with
// the wrong arguments.
func (r *Registry) CallFunction(ctx context.Context, name string, args []types.Value) (types.Value, bool, error) {
	r.mu.RLock()
	e, ok := r.defs[strings.ToUpper(name)]
	r.mu.RUnlock()
	if !ok {
		return types.Undefined, false, nil
	}
	if e.sig != nil {
		coerced, ok := e.sig.Coerce(args)
		if !ok {
			return types.Undefined, true, nil
		}
		args = coerced
	}
	v, err := e.def.Fn(ctx, args)
	if err != nil {
		return types.Undefined, true, fmt.Errorf("%s: %w", e.def.Name, err)
	}
	return v, true, nil
}
