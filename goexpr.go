// Package goexpr is a strongly typed expression and rule engine.
//
// Hosts build expression trees with the constructors of [types] and run
// passes over them: evaluation against a source of variables, type and unit
// inference, simplification, constant folding, differentiation, inversion
// and rendering. Trees are immutable, so every pass returns a new tree and
// the same tree can be shared between goroutines.
//
// # Quick Start
//
//	// 2 + 3 * 4
//	tree := types.Add(types.Num(2), types.Multiply(types.Num(3), types.Num(4)))
//	res, err := goexpr.Evaluate(ctx, tree, nil)
//	// res.Value is 14
//
//	// Rules over time series
//	rule := types.Greater(
//	    types.NewTemporal("AVERAGE", types.Var("temperature"),
//	        types.Period(types.NewNumber(1, types.WithUnit("h")))),
//	    types.Num(21),
//	)
//	res, err = goexpr.Evaluate(ctx, rule, nil,
//	    evaluator.WithTemporal(series.Lookup),
//	)
//	if !res.Success {
//	    log.Println(res.Error) // not enough history for the window
//	}
//
//	// Rewrite passes
//	simpler, _ := goexpr.Simplify(types.Subtract(types.Var("x"), types.Var("x"))) // 0
//	fmt.Println(goexpr.Serialize(simpler))
//
// # More Information
//
// For detailed documentation, see:
//   - Evaluator: github.com/sandrolain/goexpr/pkg/evaluator
//   - Rewrites: github.com/sandrolain/goexpr/pkg/rewrite
//   - Calculus: github.com/sandrolain/goexpr/pkg/calculus
//   - Rendering: github.com/sandrolain/goexpr/pkg/render
//   - Documents: github.com/sandrolain/goexpr/pkg/document
//   - Types: github.com/sandrolain/goexpr/pkg/types
package goexpr

import (
	"context"

	"github.com/google/uuid"

	"github.com/sandrolain/goexpr/pkg/analysis"
	"github.com/sandrolain/goexpr/pkg/calculus"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/render"
	"github.com/sandrolain/goexpr/pkg/rewrite"
	"github.com/sandrolain/goexpr/pkg/types"
)

// Version returns the current version of goexpr.
func Version() string {
	return "v0.1.0-dev"
}

// Result is the outcome of one evaluation.
type Result struct {
	Value types.Value
	// Success is false when a temporal window lacked history. Value is
	// still computed from the data that was available.
	Success bool
	// Error describes why Success is false.
	Error string
	// RunID identifies the evaluation. IDs are time ordered.
	RunID uuid.UUID
}

// Evaluate reduces tree to a value against source.
//
// Missing variables evaluate to Undefined rather than failing. The returned
// error is a *types.Error for malformed trees, cancellation and host
// failures.
//
// Example:
//
//	res, err := goexpr.Evaluate(ctx, tree, map[string]any{"x": 4.0})
func Evaluate(ctx context.Context, tree types.Node, source any, opts ...evaluator.EvalOption) (Result, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Result{}, err
	}

	ev := evaluator.New(opts...)
	v, err := ev.Eval(ctx, tree, source)
	if err != nil {
		return Result{Value: types.Undefined, RunID: id}, err
	}
	return Result{
		Value:   v,
		Success: ev.Success(),
		Error:   ev.Err(),
		RunID:   id,
	}, nil
}

// InferType returns the static type of tree.
func InferType(tree types.Node) types.Type {
	return analysis.InferType(tree)
}

// InferUnit returns the unit tag of tree, "" when it has none.
func InferUnit(tree types.Node) string {
	return analysis.InferUnit(tree)
}

// Simplify rewrites tree into its canonical simplified form.
func Simplify(tree types.Node) (types.Node, error) {
	return rewrite.Simplify(tree)
}

// FoldConstants replaces the subtrees fully determined by source with their
// values.
func FoldConstants(ctx context.Context, tree types.Node, source any, opts ...evaluator.EvalOption) (types.Node, error) {
	return rewrite.FoldConstants(ctx, tree, source, opts...)
}

// Differentiate returns the derivative of tree with respect to variable x.
func Differentiate(tree types.Node, x string) (types.Node, error) {
	return calculus.Differentiate(tree, x)
}

// Invert solves f = y for variable x, which must occur exactly once in f.
func Invert(f, y types.Node, x string) (types.Node, error) {
	return calculus.Invert(f, y, x)
}

// Serialize renders tree in source syntax.
func Serialize(tree types.Node) string {
	return render.Serialize(tree)
}

// Describe renders tree as an English phrase, converting quantities to
// metric units when metric is true and to imperial units otherwise.
func Describe(tree types.Node, metric bool) string {
	return render.Describe(tree, metric)
}

// CollectFreeVariables returns the sorted names of the variables tree reads.
func CollectFreeVariables(tree types.Node) []string {
	return analysis.FreeVariables(tree)
}

// CollectFunctionNames returns the sorted names of the functions tree calls.
func CollectFunctionNames(tree types.Node) []string {
	return analysis.FunctionNames(tree)
}

// CollectModelIds returns the sorted model identifiers tree references.
func CollectModelIds(tree types.Node) []string {
	return analysis.ModelIDs(tree)
}

// CollectParameters returns the sorted parameter names tree references.
func CollectParameters(tree types.Node) []string {
	return analysis.Parameters(tree)
}

// Substitute replaces the free occurrences of variable name with replacement.
func Substitute(tree types.Node, name string, replacement types.Node) types.Node {
	return rewrite.Substitute(tree, name, replacement)
}
