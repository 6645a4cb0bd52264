package evaluator_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/types"
)

func eval(t *testing.T, n types.Node, source any, opts ...evaluator.EvalOption) types.Value {
	t.Helper()
	v, err := evaluator.New(opts...).Eval(context.Background(), n, source)
	require.NoError(t, err)
	return v
}

func TestArithmetic(t *testing.T) {
	env := map[string]any{"x": 4.0, "flag": true, "s": "2.5", "word": "abc"}

	tests := []struct {
		name string
		node types.Node
		want types.Value
	}{
		{"precedence", types.Add(types.Num(2), types.Multiply(types.Num(3), types.Num(4))), types.NumberValue(14)},
		{"subtract", types.Subtract(types.Var("x"), types.Num(1)), types.NumberValue(3)},
		{"divide", types.Divide(types.Var("x"), types.Num(8)), types.NumberValue(0.5)},
		{"power", types.Power(types.Var("x"), types.Num(2)), types.NumberValue(16)},
		{"bool counts as one", types.Add(types.Var("flag"), types.Num(1)), types.NumberValue(2)},
		{"numeric string", types.Multiply(types.Var("s"), types.Num(2)), types.NumberValue(5)},
		{"non-numeric string", types.Add(types.Var("word"), types.Num(1)), types.Undefined},
		{"missing variable", types.Add(types.Var("missing"), types.Num(1)), types.Undefined},
		{"subtract string", types.Subtract(types.Var("s"), types.Num(1)), types.Undefined},
		{"negate", types.Negate(types.Var("x")), types.NumberValue(-4)},
		{"negate bool", types.Negate(types.Var("flag")), types.Undefined},
		{"identity", types.Identity(types.Var("x")), types.NumberValue(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(eval(t, tt.node, env)), "got %v", eval(t, tt.node, env))
		})
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name string
		node types.Node
		want types.Value
	}{
		{"numbers", types.Greater(types.Num(3), types.Num(2)), types.BoolValue(true)},
		{"nan never equal", types.Equals(types.Num(math.NaN()), types.Num(math.NaN())), types.BoolValue(false)},
		{"bool greater", types.Greater(types.True, types.False), types.BoolValue(true)},
		{"bool greater or equal", types.GreaterOrEqual(types.False, types.True), types.BoolValue(false)},
		{"bool less", types.Less(types.False, types.True), types.BoolValue(true)},
		{"bool less or equal", types.LessOrEqual(types.True, types.True), types.BoolValue(true)},
		{"strings ordinal", types.Less(types.Str("a"), types.Str("b")), types.BoolValue(true)},
		{"strings equal", types.Equals(types.Str("a"), types.Str("a")), types.BoolValue(true)},
		{"bool and number", types.Equals(types.True, types.Num(5)), types.BoolValue(true)},
		{"number zero is false", types.Equals(types.Num(0), types.False), types.BoolValue(true)},
		{"string and number", types.Equals(types.Str("1"), types.Num(1)), types.Undefined},
		{"undefined operand", types.Greater(types.Var("missing"), types.Num(1)), types.Undefined},
		{"is behaves as equals", types.NewBinary(types.KindIs, types.Num(1), types.Num(1)), types.BoolValue(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, tt.node, nil)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestLogic(t *testing.T) {
	env := map[string]any{"on": true, "off": false, "n": 2.0}

	assert.Equal(t, types.BoolValue(false), eval(t, types.And(types.Var("off"), types.Var("missing")), env))
	assert.Equal(t, types.Undefined, eval(t, types.And(types.Var("on"), types.Var("missing")), env))
	assert.Equal(t, types.BoolValue(true), eval(t, types.Or(types.Var("on"), types.Var("missing")), env))
	assert.Equal(t, types.Undefined, eval(t, types.Or(types.Var("off"), types.Var("missing")), env))
	assert.Equal(t, types.BoolValue(true), eval(t, types.And(types.Var("on"), types.Var("n")), env))
	assert.Equal(t, types.BoolValue(false), eval(t, types.Not(types.Var("n")), env))
	assert.Equal(t, types.Undefined, eval(t, types.Not(types.Var("missing")), env))

	_, err := evaluator.New().Eval(context.Background(), types.And(types.Var("on"), types.Str("yes")), env)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrNotBoolean))

	_, err = evaluator.New().Eval(context.Background(), types.Not(types.Str("yes")), env)
	assert.True(t, types.HasCode(err, types.ErrNotBoolean))
}

func TestTernary(t *testing.T) {
	tree := types.If(types.Greater(types.Var("x"), types.Num(5)), types.Str("hi"), types.Str("lo"))

	assert.Equal(t, types.StringValue("hi"), eval(t, tree, map[string]any{"x": 7.0}))
	assert.Equal(t, types.StringValue("lo"), eval(t, tree, map[string]any{"x": 3.0}))
	assert.Equal(t, types.Undefined, eval(t, tree, map[string]any{}))

	noElse := types.If(types.Var("c"), types.Num(1), nil)
	assert.Equal(t, types.Undefined, eval(t, noElse, map[string]any{"c": false}))
	assert.Equal(t, types.NumberValue(1), eval(t, types.If(types.Str("TRUE"), types.Num(1), types.Num(2)), nil))

	// Only the selected branch is evaluated.
	guarded := types.If(types.True, types.Num(1), types.NewFailed("boom"))
	assert.Equal(t, types.NumberValue(1), eval(t, guarded, nil))

	_, err := evaluator.New().Eval(context.Background(), types.If(types.Str("maybe"), types.Num(1), types.Num(2)), nil)
	assert.True(t, types.HasCode(err, types.ErrNotBoolean))
}

func TestAggregates(t *testing.T) {
	arr := types.Array(types.Num(1), types.Num(2), types.Num(3))
	empty := types.Array()

	assert.Equal(t, types.NumberValue(6), eval(t, types.NewAggregate(types.KindSum, arr), nil))
	assert.Equal(t, types.NumberValue(2), eval(t, types.NewAggregate(types.KindAverage, arr), nil))
	assert.Equal(t, types.NumberValue(1), eval(t, types.NewAggregate(types.KindMin, arr), nil))
	assert.Equal(t, types.NumberValue(3), eval(t, types.NewAggregate(types.KindMax, arr), nil))
	assert.Equal(t, types.NumberValue(3), eval(t, types.NewAggregate(types.KindCount, arr), nil))
	assert.Equal(t, types.NumberValue(1), eval(t, types.NewAggregate(types.KindFirst, arr), nil))
	assert.Equal(t, types.Undefined, eval(t, types.NewAggregate(types.KindFirst, empty), nil))
	assert.Equal(t, types.NumberValue(0), eval(t, types.NewAggregate(types.KindSum, empty), nil))

	bools := types.Array(types.True, types.False, types.True)
	assert.Equal(t, types.NumberValue(2), eval(t, types.NewAggregate(types.KindCount, bools), nil))
	assert.Equal(t, types.BoolValue(true), eval(t, types.NewAggregate(types.KindAny, bools), nil))
	assert.Equal(t, types.BoolValue(false), eval(t, types.NewAggregate(types.KindAll, bools), nil))

	withHole := types.Array(types.Num(1), types.Var("missing"))
	assert.Equal(t, types.Undefined, eval(t, types.NewAggregate(types.KindSum, withHole), nil))
	assert.Equal(t, types.Undefined, eval(t, types.NewAggregate(types.KindMax, withHole), nil))

	_, err := evaluator.New().Eval(context.Background(), types.NewAggregate(types.KindMin, empty), nil)
	assert.True(t, types.HasCode(err, types.ErrEmptyAggregate))
}

func TestAggregateScalarDegrade(t *testing.T) {
	env := map[string]any{"x": 5.0, "zero": 0.0}

	assert.Equal(t, types.NumberValue(5), eval(t, types.NewAggregate(types.KindSum, types.Var("x")), env))
	assert.Equal(t, types.NumberValue(5), eval(t, types.NewAggregate(types.KindMax, types.Var("x")), env))
	assert.Equal(t, types.NumberValue(1), eval(t, types.NewAggregate(types.KindCount, types.Var("x")), env))
	assert.Equal(t, types.NumberValue(0), eval(t, types.NewAggregate(types.KindCount, types.Var("zero")), env))
	assert.Equal(t, types.Undefined, eval(t, types.NewAggregate(types.KindCount, types.Var("missing")), env))
}

func TestAggregateOverHostArray(t *testing.T) {
	env := map[string]any{"readings": []float64{2, 4, 9}}
	assert.Equal(t, types.NumberValue(5), eval(t, types.NewAggregate(types.KindAverage, types.Var("readings")), env))
}

func TestEach(t *testing.T) {
	doubled := types.NewEach(types.Array(types.Num(1), types.Num(2), types.Num(3)), "v", types.Multiply(types.Var("v"), types.Num(2)))
	assert.Equal(t, types.NumberValue(12), eval(t, types.NewAggregate(types.KindSum, doubled), nil))

	// The bound variable shadows the source.
	shadow := types.NewEach(types.Array(types.Num(10)), "x", types.Var("x"))
	assert.Equal(t, types.NumberValue(10), eval(t, types.NewAggregate(types.KindFirst, shadow), map[string]any{"x": 1.0}))

	_, err := evaluator.New().Eval(context.Background(), doubled, nil)
	assert.True(t, types.HasCode(err, types.ErrUnboundEach))
}

func TestLeaves(t *testing.T) {
	env := map[string]any{"site": map[string]any{"name": "north", "floors": 3}}

	assert.Equal(t, types.Undefined, eval(t, types.NewNull(), nil))
	assert.Equal(t, types.StringValue("#ff0000"), eval(t, types.NewColor(255, 0, 0, "red"), nil))
	assert.Equal(t, types.StringValue("north"), eval(t, types.NewProperty(types.Var("site"), "name"), env))
	assert.Equal(t, types.NumberValue(3), eval(t, types.NewProperty(types.Var("site"), "floors"), env))
	assert.Equal(t, types.StringValue("Tuple(1,a)"), eval(t, types.NewList(types.KindTuple, []types.Node{types.Num(1), types.Str("a")}), nil))
	assert.Equal(t, types.NumberValue(7), eval(t, types.Array(types.Num(7), types.Num(8)), nil))
	assert.Equal(t, types.BoolValue(false), eval(t, types.Array(), nil))
	assert.Equal(t, types.Undefined, eval(t, types.NewTimer(nil), nil))
	assert.Equal(t, types.NumberValue(42), eval(t, types.NewWrapped(42, "answer"), nil))
	assert.True(t, eval(t, types.NewWrapped(struct{}{}, "thing"), nil).IsNaN())

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	loc := time.FixedZone("X", 3600)
	local := eval(t, types.NewUnary(types.KindToLocalTime, types.NewDateTime(when)), nil, evaluator.WithLocation(loc))
	require.True(t, local.IsDateTime())
	assert.Equal(t, 13, local.Time().Hour())
}

func TestHardErrors(t *testing.T) {
	tests := []struct {
		name string
		node types.Node
		code types.ErrorCode
	}{
		{"failed node", types.NewFailed("bad token"), types.ErrFailedNode},
		{"parameter", types.NewParameter("threshold"), types.ErrUnboundParameter},
		{"union", types.NewList(types.KindSetUnion, []types.Node{types.Num(1)}), types.ErrNotSupported},
		{"intersection", types.NewList(types.KindIntersection, []types.Node{types.Num(1)}), types.ErrNotSupported},
		{"matches non-number", types.NewBinary(types.KindMatches, types.Num(1), types.Str("x")), types.ErrMalformedMatches},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := evaluator.New().Eval(context.Background(), tt.node, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, types.CodeOf(err))
		})
	}
}

func TestMatches(t *testing.T) {
	env := map[string]any{"mode": 3.0}
	assert.Equal(t, types.BoolValue(true), eval(t, types.NewBinary(types.KindMatches, types.Var("mode"), types.Num(3)), env))
	assert.Equal(t, types.BoolValue(false), eval(t, types.NewBinary(types.KindMatches, types.Var("mode"), types.Num(4)), env))
	assert.Equal(t, types.Undefined, eval(t, types.NewBinary(types.KindMatches, types.Var("missing"), types.Str("x")), env))
}

func TestMaxDepth(t *testing.T) {
	var n types.Node = types.Num(1)
	for i := 0; i < 50; i++ {
		n = types.Negate(n)
	}
	_, err := evaluator.New(evaluator.WithMaxDepth(10)).Eval(context.Background(), n, nil)
	assert.True(t, types.HasCode(err, types.ErrMaxDepth))
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := evaluator.New().Eval(ctx, types.Num(1), nil)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrCanceled))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEnvSource(t *testing.T) {
	root := evaluator.NewEnv(map[string]any{"a": 1.0, "b": 2.0})
	inner := root.Push().Assign("a", types.NumberValue(10))

	assert.Equal(t, types.NumberValue(12), eval(t, types.Add(types.Var("a"), types.Var("b")), inner))
	assert.Equal(t, types.NumberValue(3), eval(t, types.Add(types.Var("a"), types.Var("b")), root))
	assert.Equal(t, []string{"a", "b"}, inner.Names())
}

func TestCustomGetter(t *testing.T) {
	getter := func(_ any, name string) types.Value {
		if name == "x" {
			return types.NumberValue(9)
		}
		return types.Undefined
	}
	assert.Equal(t, types.NumberValue(10), eval(t, types.Add(types.Var("x"), types.Num(1)), nil, evaluator.WithGetter(getter)))
}
