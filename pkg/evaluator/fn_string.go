package evaluator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sandrolain/goexpr/pkg/types"
)

// The culture-sensitive and invariant variants share the root locale: there
// is no per-evaluation culture. A Caser keeps state, so each call builds one.
func fnToUpper(args []types.Value) types.Value {
	return types.StringValue(cases.Upper(language.Und).String(args[0].Str()))
}

func fnToUpperInvariant(args []types.Value) types.Value {
	return fnToUpper(args)
}

func fnToLower(args []types.Value) types.Value {
	return types.StringValue(cases.Lower(language.Und).String(args[0].Str()))
}

func fnToLowerInvariant(args []types.Value) types.Value {
	return fnToLower(args)
}

func fnTrim(args []types.Value) types.Value {
	return types.StringValue(strings.TrimSpace(args[0].Str()))
}

// fnNormalize returns the NFC form of a string.
func fnNormalize(args []types.Value) types.Value {
	return types.StringValue(norm.NFC.String(args[0].Str()))
}

func fnContains(args []types.Value) types.Value {
	return types.BoolValue(strings.Contains(args[0].Str(), args[1].Str()))
}

func fnStartsWith(args []types.Value) types.Value {
	return types.BoolValue(strings.HasPrefix(args[0].Str(), args[1].Str()))
}

func fnEndsWith(args []types.Value) types.Value {
	return types.BoolValue(strings.HasSuffix(args[0].Str(), args[1].Str()))
}
