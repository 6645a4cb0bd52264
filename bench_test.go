// Benchmarks for the main passes.
//
// Run all benchmarks:
//
//	go test -bench=. -benchmem .
package goexpr_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/rewrite"
	"github.com/sandrolain/goexpr/pkg/timeseries"
	"github.com/sandrolain/goexpr/pkg/types"
)

// ---------------------------------------------------------------------------
// Test data
// ---------------------------------------------------------------------------

// rule is a typical alarm rule over plant variables.
func rule() types.Node {
	return types.And(
		types.Greater(types.Var("temperature"), types.Add(types.Var("setpoint"), types.Num(2))),
		types.Equals(types.Var("mode"), types.Str("auto")),
		types.Not(types.Var("maintenance")),
	)
}

// wideSum adds n variables scaled by constants.
func wideSum(n int) (types.Node, map[string]any) {
	terms := make([]types.Node, n)
	env := make(map[string]any, n)
	for i := range terms {
		name := fmt.Sprintf("v%d", i)
		terms[i] = types.Multiply(types.Num(float64(i+1)), types.Var(name))
		env[name] = float64(i)
	}
	return types.Add(terms...), env
}

func powerSeries(n int) *timeseries.Set {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]timeseries.Sample, n)
	for i := range samples {
		samples[i] = timeseries.Sample{Time: t0.Add(time.Duration(i) * time.Minute), Value: float64(i % 50)}
	}
	return timeseries.NewSet(timeseries.New("power", samples...))
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

func BenchmarkEvaluateRule(b *testing.B) {
	tree := rule()
	env := map[string]any{"temperature": 25.0, "setpoint": 21.0, "mode": "auto", "maintenance": false}
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := goexpr.Evaluate(ctx, tree, env); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluateWide(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("terms=%d", n), func(b *testing.B) {
			tree, env := wideSum(n)
			ev := evaluator.New()
			ctx := context.Background()

			b.ReportAllocs()
			for b.Loop() {
				if _, err := ev.Eval(ctx, tree, env); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEvaluateTemporal(b *testing.B) {
	for _, n := range []int{60, 1440, 10080} {
		b.Run(fmt.Sprintf("samples=%d", n), func(b *testing.B) {
			set := powerSeries(n)
			tree := types.NewTemporal(types.TemporalStnd, types.Var("power"), types.Period(types.NewNumber(1, types.WithUnit("h"))))
			ev := evaluator.New(evaluator.WithTemporal(set.Lookup))
			ctx := context.Background()

			b.ReportAllocs()
			for b.Loop() {
				if _, err := ev.Eval(ctx, tree, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Rewrites
// ---------------------------------------------------------------------------

func BenchmarkSimplify(b *testing.B) {
	tree, _ := wideSum(50)
	tree = types.Subtract(types.Add(tree, types.Var("x")), types.Var("x"))

	b.Run("no-cache", func(b *testing.B) {
		s := rewrite.NewSimplifier()
		b.ReportAllocs()
		for b.Loop() {
			if _, err := s.Simplify(tree); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cache", func(b *testing.B) {
		s := rewrite.NewSimplifier(rewrite.WithCache(cache.New(64)))
		b.ReportAllocs()
		for b.Loop() {
			if _, err := s.Simplify(tree); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkFoldConstants(b *testing.B) {
	tree, env := wideSum(100)
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := goexpr.FoldConstants(ctx, tree, env); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSerialize(b *testing.B) {
	tree, _ := wideSum(100)
	b.ReportAllocs()
	for b.Loop() {
		_ = goexpr.Serialize(tree)
	}
}
