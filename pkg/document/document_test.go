package document_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/document"
	"github.com/sandrolain/goexpr/pkg/types"
)

func heating() types.Node {
	return types.Greater(
		types.NewTemporal("AVERAGE", types.Var("temperature"), types.Period(types.NewNumber(1, types.WithUnit("h")))),
		types.Num(21),
	)
}

func corpus() map[string]types.Node {
	return map[string]types.Node{
		"heating":    heating(),
		"units":      types.Add(types.Num(1), types.NewVariable("x", types.WithUnit("kWh"))),
		"if":         types.If(types.Greater(types.Var("t"), types.Num(20)), types.Str("hot"), types.Str("cold")),
		"if no else": types.If(types.True, types.Num(1), nil),
		"sum each":   types.NewAggregate(types.KindSum, types.NewEach(types.Var("xs"), "x", types.Multiply(types.Var("x"), types.Num(2)))),
		"array":      types.NewAggregate(types.KindMax, types.Array(types.Num(1), types.Num(2))),
		"delta time": types.NewTemporal("DELTA_TIME", types.Var("p"), types.UnitOfMeasure(types.Var("min"))),
		"window": types.NewTemporal("AVERAGE", types.Var("p"),
			types.Period(types.Negate(types.NewNumber(1, types.WithUnit("h")))),
			types.From(types.NewNumber(30, types.WithUnit("min")))),
		"datetime":  types.NewDateTime(time.Date(2024, 5, 1, 12, 30, 0, 500, time.UTC)),
		"color":     types.NewColor(205, 92, 92, "indian red"),
		"failed":    types.NewFailed("bad token"),
		"property":  types.NewProperty(types.Var("site"), "area"),
		"parameter": types.NewParameter("limit"),
		"model":     types.Fn("dtmi:com:example:chiller;1", types.Var("a")),
		"tuple":     types.NewList(types.KindTuple, []types.Node{types.Num(1), types.Str("a")}),
		"localtime": types.NewUnary(types.KindToLocalTime, types.Var("ts")),
		"wrapped":   types.NewWrapped(2.5, "setpoint"),
		"timer":     types.NewTimer(nil),
		"timer of":  types.NewTimer(types.Var("x")),
		"null":      types.NewNull(),
		"matches":   types.NewBinary(types.KindMatches, types.Var("c"), types.Num(3)),
		"logic":     types.And(types.Not(types.Var("a")), types.Or(types.Var("b"), types.False)),
		"strings":   types.Fn("CONTAINS", types.Str("abc"), types.Str("b")),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []document.Format{document.YAML, document.JSON, document.BSON} {
		for name, tree := range corpus() {
			t.Run(string(format)+"/"+name, func(t *testing.T) {
				doc, err := document.New(name, tree)
				require.NoError(t, err)
				require.NoError(t, document.Validate(doc))

				data, err := document.Marshal(doc, format)
				require.NoError(t, err)
				back, err := document.Unmarshal(data, format)
				require.NoError(t, err)
				require.NoError(t, document.Validate(back))

				got, err := back.Tree()
				require.NoError(t, err)
				assert.True(t, types.Equal(tree, got), "decoded %#v", got)
				assert.Equal(t, name, back.Name)
				assert.Equal(t, document.Version, back.Version)
			})
		}
	}
}

func TestRoundTripKeepsAttributes(t *testing.T) {
	tree := types.NewVariable("n", types.WithType(types.TypeInt), types.WithText("n"))
	doc, err := document.New("", tree)
	require.NoError(t, err)

	got, err := doc.Tree()
	require.NoError(t, err)
	assert.Equal(t, types.TypeInt, got.DeclaredType())
	assert.Equal(t, "n", got.Text())

	c, err := document.Decode(&document.Node{Kind: "color", Str: ptr("#cd5c5c"), Name: "indian red"})
	require.NoError(t, err)
	assert.Equal(t, "indian red", c.(*types.Color).Name())
}

func TestGoldenJSON(t *testing.T) {
	doc, err := document.New("heating", heating())
	require.NoError(t, err)
	data, err := document.Marshal(doc, document.JSON)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "heating", data)
}

func ptr[T any](v T) *T { return &v }

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no root", "name: x\n"},
		{"unknown kind", "root: {kind: sqrt}\n"},
		{"number without num", "root: {kind: number}\n"},
		{"bool without flag", "root: {kind: bool}\n"},
		{"variable without name", "root: {kind: variable}\n"},
		{"unknown type", "root: {kind: variable, name: x, type: complex}\n"},
		{"bad child", "root: {kind: add, args: [{kind: number, num: 1}, {kind: number}]}\n"},
		{"bad version", "version: -1\nroot: {kind: null}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.Unmarshal([]byte(tt.yaml), document.YAML)
			require.NoError(t, err)
			err = document.Validate(doc)
			require.Error(t, err)
			assert.True(t, types.HasCode(err, types.ErrInvalidDocument))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	num := &document.Node{Kind: "number", Num: ptr(1.0)}
	tests := []struct {
		name string
		node *document.Node
	}{
		{"unknown kind", &document.Node{Kind: "sqrt"}},
		{"binary arity", &document.Node{Kind: "subtract", Args: []*document.Node{num}}},
		{"unary arity", &document.Node{Kind: "not"}},
		{"empty add", &document.Node{Kind: "add"}},
		{"ternary arity", &document.Node{Kind: "if", Args: []*document.Node{num}}},
		{"bad datetime", &document.Node{Kind: "datetime", Str: ptr("yesterday")}},
		{"bad color", &document.Node{Kind: "color", Str: ptr("red")}},
		{"bad type", &document.Node{Kind: "variable", Name: "x", Type: "complex"}},
		{"nil child", &document.Node{Kind: "not", Args: []*document.Node{nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := document.Decode(tt.node)
			require.Error(t, err)
			assert.True(t, types.HasCode(err, types.ErrInvalidDocument))
		})
	}

	_, err := (&document.Document{}).Tree()
	assert.True(t, types.HasCode(err, types.ErrInvalidDocument))
}

func TestEncodeOpaqueWrapped(t *testing.T) {
	_, err := document.New("", types.NewWrapped(struct{}{}, "host"))
	assert.True(t, types.HasCode(err, types.ErrInvalidDocument))
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"rule.yaml", "rule.json", "rule.bson"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			doc, err := document.New("heating", heating())
			require.NoError(t, err)
			require.NoError(t, document.Write(path, doc))

			back, err := document.Read(path)
			require.NoError(t, err)
			tree, err := back.Tree()
			require.NoError(t, err)
			assert.True(t, types.Equal(heating(), tree))
		})
	}

	_, err := document.Read(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, document.JSON, document.FormatOf("a/b.JSON"))
	assert.Equal(t, document.BSON, document.FormatOf("x.bson"))
	assert.Equal(t, document.YAML, document.FormatOf("x.yml"))
	assert.Equal(t, document.YAML, document.FormatOf("x"))
}
