package ext_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/ext"
	"github.com/sandrolain/goexpr/pkg/ext/extnumeric"
	"github.com/sandrolain/goexpr/pkg/ext/extstring"
	"github.com/sandrolain/goexpr/pkg/types"
)

func eval(t *testing.T, n types.Node, opts ...evaluator.EvalOption) types.Value {
	t.Helper()
	v, err := evaluator.New(opts...).Eval(context.Background(), n, nil)
	if err != nil {
		t.Fatalf("Eval(%s) error: %v", n.Kind(), err)
	}
	return v
}

func date(s string) types.Node {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return types.NewDateTime(t)
}

type evalCase struct {
	name string
	node types.Node
	want types.Value
}

func runCases(t *testing.T, tests []evalCase, opt evaluator.EvalOption) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval(t, tt.node, opt)
			if got.IsNumber() && tt.want.IsNumber() {
				if math.Abs(got.Float()-tt.want.Float()) > 1e-9 {
					t.Errorf("got %v, want %v", got, tt.want)
				}
				return
			}
			if !got.Equal(tt.want) && !(got.IsUndefined() && tt.want.IsUndefined()) {
				t.Errorf("got %v (%s), want %v (%s)", got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

// ── WithAll ────────────────────────────────────────────────────────────────

func TestWithAll_StringFunctions(t *testing.T) {
	runCases(t, []evalCase{
		{"length runes", types.Fn("LENGTH", types.Str("héllo")), types.NumberValue(5)},
		{"indexOf", types.Fn("INDEXOF", types.Str("abcabc"), types.Str("bc")), types.NumberValue(1)},
		{"indexOf start", types.Fn("INDEXOF", types.Str("abcabc"), types.Str("bc"), types.Num(2)), types.NumberValue(4)},
		{"indexOf runes", types.Fn("INDEXOF", types.Str("héllo"), types.Str("l")), types.NumberValue(2)},
		{"indexOf missing", types.Fn("INDEXOF", types.Str("abc"), types.Str("z")), types.NumberValue(-1)},
		{"lastIndexOf", types.Fn("LASTINDEXOF", types.Str("abcabc"), types.Str("bc")), types.NumberValue(4)},
		{"substring", types.Fn("SUBSTRING", types.Str("hello"), types.Num(1), types.Num(3)), types.StringValue("ell")},
		{"substring tail", types.Fn("SUBSTRING", types.Str("hello"), types.Num(3)), types.StringValue("lo")},
		{"substring clamped", types.Fn("SUBSTRING", types.Str("hi"), types.Num(5)), types.StringValue("")},
		{"replace", types.Fn("REPLACE", types.Str("a-b-c"), types.Str("-"), types.Str("+")), types.StringValue("a+b+c")},
		{"capitalize", types.Fn("CAPITALIZE", types.Str("hELLO world")), types.StringValue("Hello world")},
		{"titleCase", types.Fn("TITLECASE", types.Str("hello world")), types.StringValue("Hello World")},
		{"camelCase", types.Fn("CAMELCASE", types.Str("hello_world")), types.StringValue("helloWorld")},
		{"snakeCase", types.Fn("SNAKECASE", types.Str("helloWorld")), types.StringValue("hello_world")},
		{"kebabCase", types.Fn("KEBABCASE", types.Str("helloWorld")), types.StringValue("hello-world")},
		{"repeat", types.Fn("REPEAT", types.Str("ab"), types.Num(3)), types.StringValue("ababab")},
		{"repeat negative", types.Fn("REPEAT", types.Str("ab"), types.Num(-1)), types.Undefined},
		{"padLeft", types.Fn("PADLEFT", types.Str("7"), types.Num(3), types.Str("0")), types.StringValue("007")},
		{"padLeft wide enough", types.Fn("PADLEFT", types.Str("abc"), types.Num(2)), types.StringValue("abc")},
		{"wordCount", types.Fn("WORDCOUNT", types.Str("a b  c")), types.NumberValue(3)},
		{"wrong kind", types.Fn("LENGTH", types.Num(3)), types.Undefined},
	}, ext.WithAll())
}

func TestWithAll_NumericFunctions(t *testing.T) {
	runCases(t, []evalCase{
		{"ln", types.Fn("LN", types.Num(1)), types.NumberValue(0)},
		{"exp", types.Fn("EXP", types.Num(0)), types.NumberValue(1)},
		{"log2", types.Fn("LOG2", types.Num(8)), types.NumberValue(3)},
		{"logb", types.Fn("LOGB", types.Num(100), types.Num(10)), types.NumberValue(2)},
		{"trunc", types.Fn("TRUNC", types.Num(-3.7)), types.NumberValue(-3)},
		{"clamp high", types.Fn("CLAMP", types.Num(150), types.Num(0), types.Num(100)), types.NumberValue(100)},
		{"clamp low", types.Fn("CLAMP", types.Num(-5), types.Num(0), types.Num(100)), types.NumberValue(0)},
		{"clamp empty range", types.Fn("CLAMP", types.Num(1), types.Num(5), types.Num(0)), types.Undefined},
		{"hypot", types.Fn("HYPOT", types.Num(3), types.Num(4)), types.NumberValue(5)},
		{"mod negative", types.Fn("MOD", types.Num(-1), types.Num(24)), types.NumberValue(23)},
		{"mod", types.Fn("MOD", types.Num(7), types.Num(3)), types.NumberValue(1)},
		{"pi", types.Fn("PI"), types.NumberValue(math.Pi)},
		{"median odd", types.Fn("MEDIAN", types.Num(3), types.Num(1), types.Num(2)), types.NumberValue(2)},
		{"median even", types.Fn("MEDIAN", types.Num(1), types.Num(2), types.Num(3), types.Num(4)), types.NumberValue(2.5)},
		{"variance", types.Fn("VARIANCE", types.Num(2), types.Num(4), types.Num(4), types.Num(4), types.Num(5), types.Num(5), types.Num(7), types.Num(9)), types.NumberValue(4)},
		{"stddev", types.Fn("STDDEV", types.Num(2), types.Num(4), types.Num(4), types.Num(4), types.Num(5), types.Num(5), types.Num(7), types.Num(9)), types.NumberValue(2)},
		{"percentile", types.Fn("PERCENTILE", types.Num(50), types.Num(1), types.Num(2), types.Num(3), types.Num(4)), types.NumberValue(2.5)},
		{"percentile out of range", types.Fn("PERCENTILE", types.Num(101), types.Num(1)), types.Undefined},
		{"mode", types.Fn("MODE", types.Num(1), types.Num(2), types.Num(2), types.Num(3), types.Num(3)), types.NumberValue(2)},
		{"bool as number", types.Fn("EXP", types.True), types.NumberValue(math.E)},
	}, ext.WithAll())
}

func TestWithAll_DateTimeFunctions(t *testing.T) {
	runCases(t, []evalCase{
		{"add month", types.Fn("DATEADD", date("2024-01-15T00:00:00Z"), types.Num(1), types.Str("month")),
			types.DateTimeValue(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))},
		{"add minutes", types.Fn("DATEADD", date("2024-01-15T00:00:00Z"), types.Num(90), types.Str("min")),
			types.DateTimeValue(time.Date(2024, 1, 15, 1, 30, 0, 0, time.UTC))},
		{"add unknown unit", types.Fn("DATEADD", date("2024-01-15T00:00:00Z"), types.Num(1), types.Str("fortnight")), types.Undefined},
		{"diff hours", types.Fn("DATEDIFF", date("2024-01-01T00:00:00Z"), date("2024-01-02T12:00:00Z"), types.Str("h")), types.NumberValue(36)},
		{"diff months", types.Fn("DATEDIFF", date("2024-01-15T00:00:00Z"), date("2024-03-14T00:00:00Z"), types.Str("month")), types.NumberValue(1)},
		{"diff years", types.Fn("DATEDIFF", date("2020-02-29T00:00:00Z"), date("2024-02-28T00:00:00Z"), types.Str("year")), types.NumberValue(3)},
		{"diff negative", types.Fn("DATEDIFF", date("2024-03-01T00:00:00Z"), date("2024-01-01T00:00:00Z"), types.Str("month")), types.NumberValue(-2)},
		{"start of week", types.Fn("STARTOF", date("2024-05-15T13:45:00Z"), types.Str("w")),
			types.DateTimeValue(time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC))},
		{"start of hour alias", types.Fn("STARTOF", date("2024-05-15T13:45:00Z"), types.Str("hours")),
			types.DateTimeValue(time.Date(2024, 5, 15, 13, 0, 0, 0, time.UTC))},
		{"start of year", types.Fn("STARTOF", date("2024-05-15T13:45:00Z"), types.Str("year")),
			types.DateTimeValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"year of unix seconds", types.Fn("YEAR", types.Num(0)), types.NumberValue(1970)},
		{"unix seconds", types.Fn("UNIXSECONDS", date("1970-01-01T00:01:00Z")), types.NumberValue(60)},
	}, ext.WithAll())
}

func TestWithAll_CryptoFunctions(t *testing.T) {
	runCases(t, []evalCase{
		{"sha256", types.Fn("HASH", types.Str("abc"), types.Str("SHA256")),
			types.StringValue("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")},
		{"unknown algorithm", types.Fn("HASH", types.Str("abc"), types.Str("crc")), types.Undefined},
		{"hmac", types.Fn("HMAC", types.Str("The quick brown fox jumps over the lazy dog"), types.Str("key"), types.Str("sha256")),
			types.StringValue("f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8")},
	}, ext.WithAll())

	id := eval(t, types.Fn("UUID"), ext.WithAll())
	if !id.IsString() || len(id.Str()) != 36 || id.Str()[14] != '7' {
		t.Errorf("UUID() = %v, want a v7 uuid", id)
	}
	if other := eval(t, types.Fn("uuid"), ext.WithAll()); other.Str() == id.Str() {
		t.Errorf("UUID() returned the same id twice")
	}
}

// ── Selected packs ────────────────────────────────────────────────────────

func TestWith_SelectedPacks(t *testing.T) {
	opt := ext.With(extstring.All())

	if got := eval(t, types.Fn("LENGTH", types.Str("abc")), opt); !got.Equal(types.NumberValue(3)) {
		t.Errorf("LENGTH = %v, want 3", got)
	}
	if got := eval(t, types.Fn("LN", types.Num(1)), opt); !got.IsUndefined() {
		t.Errorf("LN outside the selected packs = %v, want Undefined", got)
	}
}

func TestNewRegistry(t *testing.T) {
	all := ext.NewRegistry()
	if all.Len() != len(ext.All()) {
		t.Errorf("Len() = %d, want %d", all.Len(), len(ext.All()))
	}

	numeric := ext.NewRegistry(extnumeric.All())
	for _, name := range numeric.Names() {
		if name != strings.ToUpper(name) {
			t.Errorf("function %q is not upper case", name)
		}
	}
	if _, ok := numeric.Lookup("median"); !ok {
		t.Errorf("MEDIAN not registered")
	}
}

func TestBuiltinsWin(t *testing.T) {
	// A builtin with the same name is resolved before host functions.
	got := eval(t, types.Fn("ABS", types.Num(-2)), ext.WithAll())
	if !got.Equal(types.NumberValue(2)) {
		t.Errorf("ABS = %v, want 2", got)
	}
}
