// Package rewrite implements tree-to-tree passes: the simplifier, the
// constant-subtree optimizer and variable substitution.
//
// Every pass returns a new tree and leaves its input untouched. Node kinds a
// pass does not rewrite are rebuilt with [types.MapChildren].
package rewrite

import (
	"context"
	"log/slog"

	"github.com/sandrolain/goexpr/pkg/analysis"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/render"
	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

// MaxMigrationSteps bounds the constant migration loop of one comparison.
const MaxMigrationSteps = 100000

// Simplifier rewrites trees into a canonical, simpler form.
//
// A Simplifier holds no per-run state and is safe for concurrent use.
type Simplifier struct {
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures a Simplifier.
type Option func(*Simplifier)

// WithCache serves repeated simplifications of the same canonical text from c.
func WithCache(c *cache.Cache) Option {
	return func(s *Simplifier) {
		s.cache = c
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simplifier) {
		s.logger = logger
	}
}

// NewSimplifier creates a Simplifier.
func NewSimplifier(opts ...Option) *Simplifier {
	s := &Simplifier{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Simplify rewrites n bottom-up. The result is idempotent under Simplify and
// evaluates to the same value as n wherever both are defined.
func Simplify(n types.Node) (types.Node, error) {
	return NewSimplifier().Simplify(n)
}

// Simplify rewrites n, consulting the cache when one is configured.
func (s *Simplifier) Simplify(n types.Node) (types.Node, error) {
	if n == nil {
		return nil, nil
	}
	if s.cache == nil {
		return simplify(n)
	}
	key, ok := treeKey(n)
	if !ok {
		return simplify(n)
	}
	return s.cache.GetOrBuild(key, func() (types.Node, error) {
		s.logger.Debug("simplify cache miss", "tree", render.Serialize(n))
		return simplify(n)
	})
}

func simplify(n types.Node) (types.Node, error) {
	switch n := n.(type) {
	case *types.Unary:
		return simplifyUnary(n)
	case *types.Nary:
		switch n.Kind() {
		case types.KindAdd, types.KindMultiply:
			return simplifyCommutative(n)
		}
		return simplifyLogic(n)
	case *types.Binary:
		switch n.Kind() {
		case types.KindSubtract, types.KindDivide, types.KindPower:
			return simplifyMath(n)
		case types.KindMatches:
			return types.MapChildren(n, simplify)
		}
		return simplifyComparison(n)
	case *types.Ternary:
		return simplifyTernary(n)
	case *types.Aggregate:
		out, err := types.MapChildren(n, simplify)
		if err != nil {
			return nil, err
		}
		return foldAggregate(out.(*types.Aggregate)), nil
	}
	return types.MapChildren(n, simplify)
}

func simplifyUnary(n *types.Unary) (types.Node, error) {
	child, err := simplify(n.Child())
	if err != nil {
		return nil, err
	}
	switch n.Kind() {
	case types.KindIdentity:
		// Parentheses carry no meaning once the tree exists.
		return types.Inherit(n, child), nil
	case types.KindUnaryMinus:
		if inner, ok := child.(*types.Unary); ok && inner.Kind() == types.KindUnaryMinus {
			return inner.Child(), nil
		}
		if f, ok := types.IsNumber(child); ok {
			return types.NewNumber(-f, types.WithUnit(child.Unit())), nil
		}
		return rebuildUnary(n, child), nil
	case types.KindNot:
		return simplifyNot(n, child)
	}
	return rebuildUnary(n, child), nil
}

func rebuildUnary(n *types.Unary, child types.Node) types.Node {
	if child == n.Child() {
		return n
	}
	return types.NewUnary(n.Kind(), child, types.WithUnit(n.Unit()), types.WithType(n.DeclaredType()))
}

func simplifyTernary(n *types.Ternary) (types.Node, error) {
	out, err := types.MapChildren(n, simplify)
	if err != nil {
		return nil, err
	}
	t := out.(*types.Ternary)
	if b, ok := types.IsBoolConstant(t.Conditional()); ok {
		if b {
			return t.Truth(), nil
		}
		if t.Falsehood() == nil {
			return types.NewNull(), nil
		}
		return t.Falsehood(), nil
	}
	return t, nil
}

// foldAggregate evaluates an aggregate over an array of constants.
func foldAggregate(n *types.Aggregate) types.Node {
	arr, ok := n.Child().(*types.List)
	if !ok || arr.Kind() != types.KindArray {
		return n
	}
	for _, c := range arr.Children() {
		if !isLiteral(c) {
			return n
		}
	}
	if c, ok := evaluateConstant(n); ok {
		return c
	}
	return n
}

// evaluateConstant evaluates a tree with no free variables and turns a
// defined scalar result into a constant carrying the tree's unit.
func evaluateConstant(n types.Node) (types.Node, bool) {
	v, err := evaluator.New().Eval(context.Background(), n, nil)
	if err != nil {
		return nil, false
	}
	return constantFor(n, v)
}

func constantFor(n types.Node, v types.Value) (types.Node, bool) {
	switch {
	case v.IsNumber():
		if v.IsNaN() {
			return nil, false
		}
		return types.NewNumber(v.Float(), types.WithUnit(valueUnit(n))), true
	case v.IsBool():
		return types.NewBool(v.Bool()), true
	case v.IsString(), v.IsDateTime():
		return types.NewConstant(v), true
	}
	return nil, false
}

// valueUnit is the unit a folded number inherits from the tree it replaces.
func valueUnit(n types.Node) string {
	if n.Unit() != units.None {
		return n.Unit()
	}
	switch u := analysis.InferUnit(n); u {
	case units.Error, units.Bool:
		return units.None
	default:
		return u
	}
}

// isLiteral reports whether n is a number, string, bool or datetime constant.
func isLiteral(n types.Node) bool {
	c, ok := n.(*types.Constant)
	return ok && c.Kind() != types.KindNull
}
