package evaluator

import (
	"context"
	"math"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
)

// evalCall resolves a call against the builtins, then model runners, then
// the host function sources. Unknown names evaluate to Undefined.
func (e *Evaluator) evalCall(ctx context.Context, n *types.Call, ec *EvalContext) (types.Value, error) {
	if def, ok := GetFunction(n.Name()); ok {
		return e.callBuiltin(ctx, def, n, ec)
	}

	if e.opts.Models != nil {
		if runner := e.opts.Models(n.Name()); runner != nil {
			return e.callModel(ctx, runner, n, ec)
		}
	}

	args, err := e.evalAll(ctx, n.Children(), ec)
	if err != nil {
		return types.Undefined, err
	}
	for _, a := range args {
		if a.IsUndefined() {
			return types.Undefined, nil
		}
	}

	if n.Name() == "average" {
		nums, ok := numbers(args)
		if !ok || len(nums) == 0 {
			return types.Undefined, nil
		}
		sum := 0.0
		for _, f := range nums {
			sum += f
		}
		return types.NumberValue(sum / float64(len(nums))), nil
	}

	for _, fs := range e.functionSources(ec) {
		v, found, err := fs.CallFunction(ctx, n.Name(), args)
		if err != nil {
			return types.Undefined, types.Errorf(types.ErrFailedNode, "function %s failed", n.Name()).WithNode(n).WithCause(err)
		}
		if found {
			return v, nil
		}
	}

	if e.opts.Debug {
		e.logger.Debug("unknown function", "name", n.Name())
	}
	return types.Undefined, nil
}

func (e *Evaluator) functionSources(ec *EvalContext) []FunctionSource {
	var out []FunctionSource
	if fs, ok := ec.source.(FunctionSource); ok {
		out = append(out, fs)
	}
	if e.opts.Functions != nil {
		out = append(out, e.opts.Functions)
	}
	return out
}

// callBuiltin checks arity, evaluates and coerces the arguments and calls
// the builtin. Wrong arity or an argument of the wrong kind is Undefined.
func (e *Evaluator) callBuiltin(ctx context.Context, def *FunctionDef, n *types.Call, ec *EvalContext) (types.Value, error) {
	if len(n.Children()) != def.Arity {
		return types.Undefined, nil
	}
	args, err := e.evalAll(ctx, n.Children(), ec)
	if err != nil {
		return types.Undefined, err
	}
	for i, a := range args {
		coerced, ok := coerceArg(def.ArgKind, a)
		if !ok {
			return types.Undefined, nil
		}
		args[i] = coerced
	}
	return def.Impl(args), nil
}

func coerceArg(kind ArgKind, v types.Value) (types.Value, bool) {
	if v.IsUndefined() {
		return types.Undefined, false
	}
	switch kind {
	case ArgNumber:
		if !v.IsNumberOrBool() {
			return types.Undefined, false
		}
		f, _ := v.ToFloat()
		return types.NumberValue(f), true
	case ArgDate:
		switch {
		case v.IsDateTime():
			return v, true
		case v.IsNumber() && !math.IsNaN(v.Float()) && !math.IsInf(v.Float(), 0):
			sec, frac := math.Modf(v.Float())
			return types.DateTimeValue(time.Unix(int64(sec), int64(frac*1e9)).UTC()), true
		}
		return types.Undefined, false
	case ArgString:
		return types.StringValue(asString(v)), true
	}
	return types.Undefined, false
}

// callModel runs a model with one single-value row per argument.
func (e *Evaluator) callModel(ctx context.Context, runner ModelRunner, n *types.Call, ec *EvalContext) (types.Value, error) {
	rows := make([][]types.Value, 0, len(n.Children()))
	for _, c := range n.Children() {
		v, err := e.evalNode(ctx, c, ec)
		if err != nil {
			return types.Undefined, err
		}
		rows = append(rows, []types.Value{v})
	}
	v, err := runner.Run(ctx, rows)
	if err != nil {
		return types.Undefined, types.Errorf(types.ErrFailedNode, "model %s failed", n.Name()).WithNode(n).WithCause(err)
	}
	return v, nil
}
