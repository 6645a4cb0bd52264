package evaluator

import (
	"context"
	"math"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

func (e *Evaluator) evalBinary(ctx context.Context, n *types.Binary, ec *EvalContext) (types.Value, error) {
	if n.Kind() == types.KindMatches {
		return e.evalMatches(ctx, n, ec)
	}

	left, err := e.evalNode(ctx, n.Left(), ec)
	if err != nil {
		return types.Undefined, err
	}
	right, err := e.evalNode(ctx, n.Right(), ec)
	if err != nil {
		return types.Undefined, err
	}

	switch n.Kind() {
	case types.KindSubtract, types.KindDivide, types.KindPower:
		return arithmetic(n.Kind(), left, right), nil
	}
	return compare(n.Kind(), left, right), nil
}

// arithmetic applies a non-commutative operator to a number pair. Booleans
// count as 1 and 0; every other pairing is Undefined.
func arithmetic(kind types.Kind, left, right types.Value) types.Value {
	if !left.IsNumberOrBool() || !right.IsNumberOrBool() {
		return types.Undefined
	}
	a, _ := left.ToFloat()
	b, _ := right.ToFloat()
	switch kind {
	case types.KindSubtract:
		return types.NumberValue(a - b)
	case types.KindDivide:
		return types.NumberValue(a / b)
	case types.KindPower:
		return types.NumberValue(math.Pow(a, b))
	}
	return types.Undefined
}

// compare dispatches a comparison on the operand pair.
func compare(kind types.Kind, left, right types.Value) types.Value {
	if kind == types.KindIs {
		kind = types.KindEquals
	}
	switch {
	case left.IsNumber() && right.IsNumber():
		return compareNumbers(kind, left.Float(), right.Float())
	case left.IsBool() && right.IsBool():
		return compareBools(kind, left.Bool(), right.Bool())
	case left.IsString() && right.IsString():
		return compareNumbers(kind, float64(strings.Compare(left.Str(), right.Str())), 0)
	case left.IsBool() && right.IsNumber(), left.IsNumber() && right.IsBool():
		a, _ := truthy(left)
		b, _ := truthy(right)
		return compareBools(kind, a, b)
	}
	return types.Undefined
}

func compareNumbers(kind types.Kind, a, b float64) types.Value {
	switch kind {
	case types.KindEquals:
		return types.BoolValue(a == b)
	case types.KindNotEquals:
		return types.BoolValue(a != b)
	case types.KindGreater:
		return types.BoolValue(a > b)
	case types.KindGreaterOrEqual:
		return types.BoolValue(a >= b)
	case types.KindLess:
		return types.BoolValue(a < b)
	case types.KindLessOrEqual:
		return types.BoolValue(a <= b)
	}
	return types.Undefined
}

// compareBools orders false before true.
func compareBools(kind types.Kind, a, b bool) types.Value {
	switch kind {
	case types.KindEquals:
		return types.BoolValue(a == b)
	case types.KindNotEquals:
		return types.BoolValue(a != b)
	case types.KindGreater:
		return types.BoolValue(a && !b)
	case types.KindGreaterOrEqual:
		return types.BoolValue(a || !b)
	case types.KindLess:
		return types.BoolValue(b && !a)
	case types.KindLessOrEqual:
		return types.BoolValue(!a || b)
	}
	return types.Undefined
}

// evalMatches tests the left value against a numeric literal on the right.
func (e *Evaluator) evalMatches(ctx context.Context, n *types.Binary, ec *EvalContext) (types.Value, error) {
	left, err := e.evalNode(ctx, n.Left(), ec)
	if err != nil {
		return types.Undefined, err
	}
	if left.IsUndefined() {
		return types.Undefined, nil
	}
	want, ok := types.IsNumber(n.Right())
	if !ok {
		return types.Undefined, types.NewError(types.ErrMalformedMatches, "MATCHES requires a number on the right").WithNode(n)
	}
	got, ok := left.ToFloat()
	return types.BoolValue(ok && got == want), nil
}

func (e *Evaluator) evalNary(ctx context.Context, n *types.Nary, ec *EvalContext) (types.Value, error) {
	switch n.Kind() {
	case types.KindAnd, types.KindOr:
		return e.evalLogic(ctx, n, ec)
	}

	acc := 0.0
	if n.Kind() == types.KindMultiply {
		acc = 1
	}
	undefined := false
	for _, c := range n.Children() {
		v, err := e.evalNode(ctx, c, ec)
		if err != nil {
			return types.Undefined, err
		}
		f, ok := v.ToFloat()
		if !ok {
			// Keep evaluating so hard errors in later operands still surface.
			undefined = true
			continue
		}
		if n.Kind() == types.KindMultiply {
			acc *= f
		} else {
			acc += f
		}
	}
	if undefined {
		return types.Undefined, nil
	}
	return types.NumberValue(acc), nil
}

// evalLogic evaluates and/or with early exit, left to right.
func (e *Evaluator) evalLogic(ctx context.Context, n *types.Nary, ec *EvalContext) (types.Value, error) {
	isAnd := n.Kind() == types.KindAnd
	for _, c := range n.Children() {
		v, err := e.evalNode(ctx, c, ec)
		if err != nil {
			return types.Undefined, err
		}
		if v.IsUndefined() {
			return types.Undefined, nil
		}
		b, ok := truthy(v)
		if !ok {
			return types.Undefined, types.Errorf(types.ErrNotBoolean, "%s operand is %s, not boolean", n.Kind(), v.Kind()).WithNode(c)
		}
		if isAnd && !b {
			return types.BoolValue(false), nil
		}
		if !isAnd && b {
			return types.BoolValue(true), nil
		}
	}
	return types.BoolValue(isAnd), nil
}

func (e *Evaluator) evalUnary(ctx context.Context, n *types.Unary, ec *EvalContext) (types.Value, error) {
	v, err := e.evalNode(ctx, n.Child(), ec)
	if err != nil {
		return types.Undefined, err
	}

	switch n.Kind() {
	case types.KindNot:
		if v.IsUndefined() {
			return types.Undefined, nil
		}
		b, ok := truthy(v)
		if !ok {
			return types.Undefined, types.Errorf(types.ErrNotBoolean, "NOT operand is %s, not boolean", v.Kind()).WithNode(n)
		}
		return types.BoolValue(!b), nil
	case types.KindUnaryMinus:
		if !v.IsNumber() {
			return types.Undefined, nil
		}
		return types.NumberValue(-v.Float()), nil
	case types.KindToLocalTime:
		if !v.IsDateTime() {
			return types.Undefined, nil
		}
		return types.DateTimeValue(v.Time().In(e.opts.Location)), nil
	}
	return v, nil
}

func (e *Evaluator) evalTernary(ctx context.Context, n *types.Ternary, ec *EvalContext) (types.Value, error) {
	cond, err := e.evalNode(ctx, n.Conditional(), ec)
	if err != nil {
		return types.Undefined, err
	}
	if cond.IsUndefined() {
		return types.Undefined, nil
	}

	b, ok := truthy(cond)
	if !ok && cond.IsString() {
		switch {
		case strings.EqualFold(cond.Str(), "true"):
			b, ok = true, true
		case strings.EqualFold(cond.Str(), "false"):
			b, ok = false, true
		}
	}
	if !ok {
		return types.Undefined, types.Errorf(types.ErrNotBoolean, "IF condition is %s, not boolean", cond.Kind()).WithNode(n)
	}

	if b {
		return e.evalNode(ctx, n.Truth(), ec)
	}
	if n.Falsehood() == nil {
		return types.Undefined, nil
	}
	return e.evalNode(ctx, n.Falsehood(), ec)
}
