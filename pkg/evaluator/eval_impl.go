package evaluator

import (
	"context"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// evalNode is the main evaluation dispatcher.
func (e *Evaluator) evalNode(ctx context.Context, node types.Node, ec *EvalContext) (types.Value, error) {
	// Check context cancellation
	select {
	case <-ctx.Done():
		return types.Undefined, types.NewError(types.ErrCanceled, "evaluation canceled").WithCause(ctx.Err())
	default:
	}

	ec.depth++
	defer func() { ec.depth-- }()

	// Check recursion depth
	if e.opts.MaxDepth > 0 && ec.depth > e.opts.MaxDepth {
		return types.Undefined, types.Errorf(types.ErrMaxDepth, "maximum recursion depth %d exceeded", e.opts.MaxDepth)
	}

	// Debug logging
	if e.opts.Debug {
		e.logger.Debug("evaluating node",
			"kind", node.Kind(),
			"depth", ec.depth)
	}

	// Dispatch based on node type
	switch n := node.(type) {
	case *types.Constant:
		if n.Kind() == types.KindNull {
			return types.Undefined, nil
		}
		return n.Value(), nil
	case *types.Color:
		return types.StringValue(n.Hex()), nil
	case *types.Failed:
		return types.Undefined, types.NewError(types.ErrFailedNode, n.Message()).WithNode(n)
	case *types.Variable:
		return e.evalVariable(n, ec), nil
	case *types.Property:
		return e.evalProperty(ctx, n, ec)
	case *types.Parameter:
		return types.Undefined, types.Errorf(types.ErrUnboundParameter, "parameter @%s is not bound", n.Name()).WithNode(n)
	case *types.Binary:
		return e.evalBinary(ctx, n, ec)
	case *types.Nary:
		return e.evalNary(ctx, n, ec)
	case *types.Unary:
		return e.evalUnary(ctx, n, ec)
	case *types.Ternary:
		return e.evalTernary(ctx, n, ec)
	case *types.Aggregate:
		return e.evalAggregate(ctx, n, ec)
	case *types.Temporal:
		return e.evalTemporal(ctx, n, ec)
	case *types.List:
		return e.evalList(ctx, n, ec)
	case *types.Each:
		return types.Undefined, types.Errorf(types.ErrUnboundEach, "EACH over %s must appear inside an aggregate", n.Variable()).WithNode(n)
	case *types.Wrapped:
		return evalWrapped(n), nil
	case *types.Timer:
		return types.Undefined, nil
	case *types.Call:
		return e.evalCall(ctx, n, ec)
	}

	// Unreachable: Node is sealed.
	return types.Undefined, types.Errorf(types.ErrNotSupported, "unsupported node kind: %s", node.Kind())
}

// evalVariable resolves a variable: Each bindings first, then the source.
func (e *Evaluator) evalVariable(n *types.Variable, ec *EvalContext) types.Value {
	if v, ok := ec.binding(n.Name()); ok {
		return v
	}
	return e.opts.Getter(ec.source, n.Name())
}

// evalProperty evaluates the parent and looks the property up in it. When the
// parent yields nothing usable, the dotted path is resolved through the getter.
func (e *Evaluator) evalProperty(ctx context.Context, n *types.Property, ec *EvalContext) (types.Value, error) {
	parent, err := e.evalNode(ctx, n.Parent(), ec)
	if err != nil {
		return types.Undefined, err
	}
	if parent.IsObject() {
		if v, ok := lookup(parent.Object(), n.Name()); ok {
			return v, nil
		}
	}
	if path, ok := dottedName(n); ok {
		return e.opts.Getter(ec.source, path), nil
	}
	return types.Undefined, nil
}

func (e *Evaluator) evalList(ctx context.Context, n *types.List, ec *EvalContext) (types.Value, error) {
	switch n.Kind() {
	case types.KindSetUnion, types.KindIntersection:
		return types.Undefined, types.Errorf(types.ErrNotSupported, "%s cannot be evaluated to a value", n.Kind()).WithNode(n)
	case types.KindTuple:
		parts := make([]string, 0, len(n.Children()))
		for _, c := range n.Children() {
			v, err := e.evalNode(ctx, c, ec)
			if err != nil {
				return types.Undefined, err
			}
			parts = append(parts, v.String())
		}
		return types.StringValue("Tuple(" + strings.Join(parts, ",") + ")"), nil
	}

	// An array outside an aggregate stands for its first element.
	if len(n.Children()) == 0 {
		return types.BoolValue(false), nil
	}
	return e.evalNode(ctx, n.Children()[0], ec)
}

// evalWrapped converts a host value. Capabilities stay opaque so temporal
// and property lookups can use them; anything else unconvertible is NaN.
func evalWrapped(n *types.Wrapped) types.Value {
	v := types.FromAny(n.Value())
	switch {
	case v.IsUndefined():
		return types.NumberValue(nan())
	case v.IsObject():
		if _, ok := elementsOf(v); ok {
			return v
		}
		switch v.Object().(type) {
		case TemporalObject, PropertySource:
			return v
		}
		return types.NumberValue(nan())
	}
	return v
}

// dottedName renders a chain of variables and properties as "a.b.c".
func dottedName(n types.Node) (string, bool) {
	switch n := n.(type) {
	case *types.Variable:
		return n.Name(), true
	case *types.Property:
		parent, ok := dottedName(n.Parent())
		if !ok {
			return "", false
		}
		return parent + "." + n.Name(), true
	}
	return "", false
}
