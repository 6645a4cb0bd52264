// Package ext provides optional host function packs that go beyond the
// builtin function tables.
//
// The packs live in sub-packages grouped by category:
//   - extstring   - LENGTH, INDEXOF, SUBSTRING, REPLACE, CAMELCASE, TITLECASE, …
//   - extnumeric  - LN, EXP, CLAMP, MOD, MEDIAN, PERCENTILE, STDDEV, …
//   - extdatetime - DATEADD, DATEDIFF, STARTOF, YEAR, UNIXSECONDS
//   - extcrypto   - UUID, HASH, HMAC
//
// # Integration - all packs at once
//
//	ev := evaluator.New(ext.WithAll())
//
// # Integration - by category
//
//	ev := evaluator.New(ext.With(extstring.All(), extnumeric.All()))
//
// # Integration - next to host functions
//
//	reg := ext.NewRegistry()
//	reg.MustRegister(myFunc)
//	ev := evaluator.New(evaluator.WithFunctions(reg))
package ext

import (
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/ext/extcrypto"
	"github.com/sandrolain/goexpr/pkg/ext/extdatetime"
	"github.com/sandrolain/goexpr/pkg/ext/extnumeric"
	"github.com/sandrolain/goexpr/pkg/ext/extstring"
	"github.com/sandrolain/goexpr/pkg/functions"
)

// All returns every extension function definition.
func All() []functions.Def {
	var all []functions.Def
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extdatetime.All()...)
	all = append(all, extcrypto.All()...)
	return all
}

// NewRegistry returns a registry holding the given packs, or every pack
// when none is given.
func NewRegistry(packs ...[]functions.Def) *functions.Registry {
	if len(packs) == 0 {
		packs = [][]functions.Def{All()}
	}
	reg := functions.NewRegistry()
	for _, p := range packs {
		reg.MustRegister(p...)
	}
	return reg
}

// WithAll returns an EvalOption that makes every pack callable.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(NewRegistry())
}

// With returns an EvalOption for the given packs only.
func With(packs ...[]functions.Def) evaluator.EvalOption {
	return evaluator.WithFunctions(NewRegistry(packs...))
}
