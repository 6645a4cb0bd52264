package render_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/render"
	"github.com/sandrolain/goexpr/pkg/types"
)

type namedNode struct {
	name string
	node types.Node
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestSerialize(t *testing.T) {
	cases := []namedNode{
		{"precedence", types.Add(types.Num(2), types.Multiply(types.Num(3), types.Num(4)))},
		{"grouped", types.Multiply(types.Add(types.Var("a"), types.Var("b")), types.Var("c"))},
		{"right_assoc", types.Subtract(types.Var("a"), types.Subtract(types.Var("b"), types.Var("c")))},
		{"left_assoc", types.Subtract(types.Subtract(types.Var("a"), types.Var("b")), types.Var("c"))},
		{"flat_add", types.Add(types.Add(types.Var("a"), types.Var("b")), types.Var("c"))},
		{"unit", types.NewNumber(5, types.WithUnit("kWh"))},
		{"power", types.Power(types.Var("x"), types.Num(2))},
		{"negative_base", types.Power(types.Num(-2), types.Num(2))},
		{"not", types.Not(types.And(types.Var("a"), types.Var("b")))},
		{"or", types.Or(types.Less(types.Var("a"), types.Num(1)), types.Greater(types.Var("a"), types.Num(10)))},
		{"ternary", types.If(types.Greater(types.Var("t"), types.Num(20)), types.Str("hot"), types.Str("cold"))},
		{"aggregate", types.NewAggregate(types.KindSum, types.Array(types.Num(1), types.Num(2)))},
		{"temporal", types.NewTemporal(types.TemporalAverage, types.Var("power"), types.Period(types.NewNumber(1, types.WithUnit("h"))))},
		{"model_call", types.Fn("dtmi:com:example:sum;1", types.Var("x"))},
		{"parameter", types.NewParameter("limit")},
		{"datetime", types.NewDateTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))},
		{"cached_text", types.NewNumber(1, types.WithText("one"))},
		{"each", types.NewEach(types.Var("xs"), "v", types.Multiply(types.Var("v"), types.Num(2)))},
		{"property", types.NewProperty(types.Var("site"), "temp")},
		{"color", types.NewColor(255, 0, 0, "red")},
		{"matches", types.NewBinary(types.KindMatches, types.Var("code"), types.Num(3))},
		{"null", types.NewNull()},
		{"identity_grouped", types.Multiply(types.Num(2), types.Identity(types.Add(types.Var("x"), types.Var("k"))))},
		{"identity_top", types.Identity(types.Add(types.Var("x"), types.Var("k")))},
		{"identity_negated", types.Negate(types.Identity(types.Add(types.Var("x"), types.Var("k"))))},
		{"identity_atomic", types.Multiply(types.Num(2), types.Identity(types.Var("x")))},
	}

	var buf bytes.Buffer
	for _, c := range cases {
		fmt.Fprintf(&buf, "%s: %s\n", c.name, render.Serialize(c.node))
	}
	golden(t).Assert(t, "serialize", buf.Bytes())
}

func TestDescribe(t *testing.T) {
	hot := types.Greater(types.Var("temp"), types.NewNumber(20, types.WithUnit("°C")))
	cases := []struct {
		name   string
		node   types.Node
		metric bool
	}{
		{"imperial", hot, false},
		{"metric", hot, true},
		{"converted", types.Add(types.Var("a"), types.NewNumber(1, types.WithUnit("km"))), false},
		{"temporal", types.NewTemporal(types.TemporalAverage, types.Var("power"),
			types.Period(types.NewNumber(1, types.WithUnit("h"))),
			types.From(types.Negate(types.NewNumber(2, types.WithUnit("h"))))), true},
		{"delta_time", types.NewTemporal(types.TemporalDeltaTime, types.Var("door"), types.UnitOfMeasure(types.Var("min"))), true},
		{"ternary", types.If(types.Var("alarm"), types.Str("on"), types.Str("off")), true},
		{"count", types.NewAggregate(types.KindCount, types.Array(types.Var("a"), types.Var("b"), types.Var("c"))), true},
		{"not", types.Not(types.Equals(types.Var("mode"), types.Str("auto"))), true},
		{"call", types.Fn("ROUND", types.Var("x")), true},
		{"each", types.NewEach(types.Var("xs"), "v", types.Multiply(types.Var("v"), types.Num(2))), true},
		{"grouped", types.Multiply(types.Num(2), types.Identity(types.Add(types.Var("x"), types.Var("k")))), true},
	}

	var buf bytes.Buffer
	for _, c := range cases {
		fmt.Fprintf(&buf, "%s: %s\n", c.name, render.Describe(c.node, c.metric))
	}
	golden(t).Assert(t, "describe", buf.Bytes())
}

func TestGroupingKeepsMeaning(t *testing.T) {
	grouped := types.Multiply(types.Num(2), types.Identity(types.Add(types.Var("x"), types.Var("k"))))
	assert.Equal(t, "2 * (x + k)", render.Serialize(grouped))
	assert.Equal(t, "2 times (x plus k)", render.Describe(grouped, true))

	assert.Equal(t, render.Precedence(types.Add(types.Var("x"), types.Var("k"))),
		render.Precedence(types.Identity(types.Add(types.Var("x"), types.Var("k")))))
	assert.Equal(t, "a - (b - c)",
		render.Serialize(types.Subtract(types.Var("a"), types.Identity(types.Subtract(types.Var("b"), types.Var("c"))))))
}

func TestSQL(t *testing.T) {
	cases := []namedNode{
		{"and", types.And(types.Greater(types.Var("temp"), types.Num(20)), types.Equals(types.Var("mode"), types.Str("auto")))},
		{"is_null", types.Equals(types.Var("x"), types.NewNull())},
		{"is_not_null", types.NotEquals(types.Var("x"), types.NewNull())},
		{"bool_variable", types.Not(types.NewVariable("alarm", types.WithType(types.TypeBool)))},
		{"starts_with", types.Fn("STARTSWITH", types.Var("name"), types.Str("pump"))},
		{"case", types.If(types.Greater(types.Var("t"), types.Num(20)), types.Num(1), types.Num(0))},
		{"power", types.Power(types.Var("x"), types.Num(2))},
		{"nested", types.Add(types.Var("a"), types.Multiply(types.Var("b"), types.Num(2)))},
		{"function", types.Equals(types.Fn("TOUPPER", types.Var("s")), types.Str("OK"))},
		{"property", types.GreaterOrEqual(types.NewProperty(types.Var("site"), "temp"), types.Num(5))},
		{"parameter", types.Less(types.Var("x"), types.NewParameter("limit"))},
	}

	var buf bytes.Buffer
	for _, c := range cases {
		q, err := render.SQL(c.node)
		require.NoError(t, err, c.name)
		fmt.Fprintf(&buf, "%s: %s", c.name, q.Where)
		for _, a := range q.Args {
			fmt.Fprintf(&buf, " %s=%v", a.Name, a.Value)
		}
		buf.WriteByte('\n')
	}
	golden(t).Assert(t, "sql", buf.Bytes())
}

func TestSQLUnsupported(t *testing.T) {
	cases := []namedNode{
		{"matches", types.NewBinary(types.KindMatches, types.Var("code"), types.Num(3))},
		{"temporal", types.NewTemporal(types.TemporalAverage, types.Var("power"), types.Period(types.NewNumber(1, types.WithUnit("h"))))},
		{"union", types.NewList(types.KindSetUnion, []types.Node{types.Var("a"), types.Var("b")})},
		{"unknown_function", types.Fn("FORECAST_ALL", types.Var("x"))},
		{"nested", types.And(types.Var("a"), types.NewEach(types.Var("xs"), "v", types.Var("v")))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := render.SQL(c.node)
			assert.ErrorIs(t, err, render.ErrUnsupportedSQL)
		})
	}
}

func TestSQLParams(t *testing.T) {
	q, err := render.SQL(types.And(types.Greater(types.Var("a"), types.Num(1)), types.Less(types.Var("b"), types.Num(2))))
	require.NoError(t, err)
	params := q.Params()
	require.Len(t, params, 2)
	assert.Equal(t, q.Args[0], params[0])
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "power", render.Identifier("power"))
	assert.Equal(t, "x_1", render.Identifier("x_1"))
	assert.Equal(t, "[1x]", render.Identifier("1x"))
	assert.Equal(t, "[room temp]", render.Identifier("room temp"))
	assert.Equal(t, "[]", render.Identifier(""))
}

func TestPrecedence(t *testing.T) {
	assert.Less(t, render.Precedence(types.Or(types.Var("a"), types.Var("b"))), render.Precedence(types.And(types.Var("a"), types.Var("b"))))
	assert.Less(t, render.Precedence(types.Add(types.Var("a"), types.Var("b"))), render.Precedence(types.Multiply(types.Var("a"), types.Var("b"))))
	assert.Less(t, render.Precedence(types.Negate(types.Var("a"))), render.Precedence(types.Power(types.Var("a"), types.Num(2))))
	assert.Equal(t, render.Precedence(types.Negate(types.Var("a"))), render.Precedence(types.Num(-1)))
	assert.Equal(t, render.Precedence(types.Var("a")), render.Precedence(types.Num(1)))
}
