package calculus_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/calculus"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/rewrite"
	"github.com/sandrolain/goexpr/pkg/types"
)

func evalAt(t *testing.T, n types.Node, env map[string]any) float64 {
	t.Helper()
	v, err := evaluator.New().Eval(context.Background(), n, env)
	require.NoError(t, err)
	require.True(t, v.IsNumber(), "expected a number, got %v", v)
	return v.Float()
}

func TestDifferentiateSquare(t *testing.T) {
	d, err := calculus.Differentiate(types.Multiply(types.Var("x"), types.Var("x")), "x")
	require.NoError(t, err)
	for _, x := range []float64{-3, 0, 1.5, 10} {
		assert.InDelta(t, 2*x, evalAt(t, d, map[string]any{"x": x}), 1e-9)
	}
}

func TestDifferentiateRules(t *testing.T) {
	x := types.Var("x")
	tests := []struct {
		name string
		in   types.Node
		at   float64
		want float64
	}{
		{"constant", types.Num(42), 3, 0},
		{"variable", x, 3, 1},
		{"linear", types.Add(types.Multiply(types.Num(3), x), types.Num(7)), 5, 3},
		{"difference", types.Subtract(types.Multiply(x, x), x), 2, 3},
		{"cube", types.Power(x, types.Num(3)), 2, 12},
		{"exponential", types.Power(types.Num(2), x), 3, 8 * math.Ln2},
		{"triple product", types.Multiply(x, x, x), 2, 12},
		{"negate", types.Negate(types.Multiply(types.Num(4), x)), 1, -4},
		{"parentheses", types.Identity(types.Multiply(x, types.Num(5))), 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := calculus.Differentiate(tt.in, "x")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, evalAt(t, d, map[string]any{"x": tt.at}), 1e-9)
		})
	}
}

func TestDifferentiateConstants(t *testing.T) {
	for _, c := range []types.Node{types.Num(5), types.Num(-1.25), types.Str("abc"), types.True} {
		d, err := calculus.Differentiate(c, "x")
		require.NoError(t, err)
		f, ok := types.IsNumber(d)
		require.True(t, ok)
		assert.Equal(t, 0.0, f)
	}
}

func TestDifferentiateOtherVariable(t *testing.T) {
	y := types.Var("y")
	d, err := calculus.Differentiate(y, "x")
	require.NoError(t, err)
	assert.Same(t, y, d)
}

func TestDifferentiateUnsupported(t *testing.T) {
	x := types.Var("x")
	for _, n := range []types.Node{
		types.Fn("SIN", x),
		types.Power(x, x),
		types.Divide(types.Num(1), x),
		types.Not(x),
		types.If(x, types.Num(1), types.Num(0)),
	} {
		_, err := calculus.Differentiate(n, "x")
		require.Error(t, err)

		var ue *calculus.UnsupportedError
		require.True(t, errors.As(err, &ue), "want UnsupportedError for %s", n.Kind())
		assert.Equal(t, "differentiate", ue.Op)
		assert.True(t, types.IsNotSupported(err))
		assert.True(t, types.HasCode(err, types.ErrNotSupported))
	}
}

func TestInvertLinear(t *testing.T) {
	f := types.Add(types.Multiply(types.Num(3), types.Var("x")), types.Num(7))
	solution, err := calculus.Invert(f, types.Var("y"), "x")
	require.NoError(t, err)

	for _, y := range []float64{-10, 0, 7, 12.5, 1e6} {
		x := evalAt(t, solution, map[string]any{"y": y})
		back := evalAt(t, rewrite.Substitute(f, "x", types.Num(x)), nil)
		assert.InDelta(t, y, back, 1e-6)
	}

	// The raw solution simplifies to a form the simplifier keeps.
	simple, err := rewrite.Simplify(solution)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, evalAt(t, simple, map[string]any{"y": 10.0}), 1e-9)
}

func TestInvertShapes(t *testing.T) {
	x := types.Var("x")
	tests := []struct {
		name string
		f    types.Node
	}{
		{"subtract right", types.Subtract(types.Num(10), x)},
		{"subtract left", types.Subtract(x, types.Num(4))},
		{"divide right", types.Divide(types.Num(12), x)},
		{"divide left", types.Divide(x, types.Num(4))},
		{"negate", types.Negate(types.Add(x, types.Num(1)))},
		{"parentheses", types.Multiply(types.Num(2), types.Identity(types.Add(x, types.Var("k"))))},
		{"nested", types.Divide(types.Subtract(types.Multiply(types.Num(5), x), types.Num(3)), types.Num(2))},
	}
	env := map[string]any{"k": 1.5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solution, err := calculus.Invert(tt.f, types.Var("y"), "x")
			require.NoError(t, err)
			for _, y := range []float64{-3, 2, 9} {
				env["y"] = y
				xv := evalAt(t, solution, env)
				back := evalAt(t, rewrite.Substitute(tt.f, "x", types.Num(xv)), env)
				assert.InDelta(t, y, back, 1e-9)
			}
		})
	}
}

func TestInvertErrors(t *testing.T) {
	x := types.Var("x")

	_, err := calculus.Invert(types.Multiply(x, x), types.Var("y"), "x")
	assert.True(t, types.HasCode(err, types.ErrMultipleOccurrences))

	_, err = calculus.Invert(types.Subtract(x, types.Multiply(types.Num(2), x)), types.Var("y"), "x")
	assert.True(t, types.HasCode(err, types.ErrMultipleOccurrences))

	_, err = calculus.Invert(types.Add(types.Var("a"), types.Num(1)), types.Var("y"), "x")
	assert.True(t, types.HasCode(err, types.ErrVariableNotFound))

	_, err = calculus.Invert(types.Power(x, types.Num(3)), types.Var("y"), "x")
	var ue *calculus.UnsupportedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "invert", ue.Op)
	assert.Equal(t, types.KindPower, ue.Node.Kind())
	assert.True(t, types.HasCode(err, types.ErrUnsupportedShape))

	_, err = calculus.Invert(types.Fn("ABS", x), types.Var("y"), "x")
	assert.True(t, types.IsNotSupported(err))
}
