package evaluator

import (
	"math"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// DefaultGetter resolves variables from an *Env, a map or a PropertySource.
// Dotted names that are not found as a whole are walked segment by segment
// through nested maps and property sources.
func DefaultGetter(source any, name string) types.Value {
	if v, ok := lookup(source, name); ok {
		return v
	}
	if !strings.Contains(name, ".") {
		return types.Undefined
	}
	cur := source
	for _, part := range strings.Split(name, ".") {
		v, ok := lookup(cur, part)
		if !ok {
			return types.Undefined
		}
		cur = v.Interface()
	}
	return types.FromAny(cur)
}

// lookup finds name directly in source.
func lookup(source any, name string) (types.Value, bool) {
	switch s := source.(type) {
	case nil:
		return types.Undefined, false
	case *Env:
		return s.Get(name)
	case map[string]types.Value:
		v, ok := s[name]
		return v, ok
	case map[string]any:
		v, ok := s[name]
		if !ok {
			return types.Undefined, false
		}
		return types.FromAny(v), true
	case PropertySource:
		return s.Property(name)
	}
	return types.Undefined, false
}

// truthy coerces a boolean or number. Numbers are true when nonzero and
// not NaN. ok is false for every other kind.
func truthy(v types.Value) (b, ok bool) {
	switch {
	case v.IsBool():
		return v.Bool(), true
	case v.IsNumber():
		f := v.Float()
		return f != 0 && !math.IsNaN(f), true
	}
	return false, false
}

// asString renders an argument of a string function.
func asString(v types.Value) string {
	if v.IsString() {
		return v.Str()
	}
	return v.String()
}

// elementsOf unpacks an array-valued Object.
func elementsOf(v types.Value) ([]types.Value, bool) {
	if !v.IsObject() {
		return nil, false
	}
	switch items := v.Object().(type) {
	case []types.Value:
		return items, true
	case []any:
		out := make([]types.Value, len(items))
		for i, item := range items {
			out[i] = types.FromAny(item)
		}
		return out, true
	case []float64:
		out := make([]types.Value, len(items))
		for i, item := range items {
			out[i] = types.NumberValue(item)
		}
		return out, true
	}
	return nil, false
}

func nan() float64 {
	return math.NaN()
}
