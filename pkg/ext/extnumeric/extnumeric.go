// Package extnumeric provides numeric and statistical functions beyond the
// builtin numeric tables.
//
// Domain errors follow float64 semantics: LN(-1) is NaN, not an error.
package extnumeric

import (
	"context"
	"math"
	"slices"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// All returns all extended numeric function definitions.
func All() []functions.Def {
	return []functions.Def{
		Ln(),
		Exp(),
		Log2(),
		LogB(),
		Trunc(),
		Clamp(),
		Hypot(),
		Mod(),
		Pi(),
		E(),
		Median(),
		Variance(),
		Stddev(),
		Percentile(),
		Mode(),
	}
}

func unary(name, doc string, f func(float64) float64) functions.Def {
	return functions.Def{
		Name:      name,
		Signature: "<n:n>",
		Doc:       doc,
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(f(args[0].Float())), nil
		},
	}
}

// Ln returns the definition for LN(n).
func Ln() functions.Def { return unary("LN", "natural logarithm", math.Log) }

// Exp returns the definition for EXP(n).
func Exp() functions.Def { return unary("EXP", "e raised to n", math.Exp) }

// Log2 returns the definition for LOG2(n).
func Log2() functions.Def { return unary("LOG2", "base 2 logarithm", math.Log2) }

// Trunc returns the definition for TRUNC(n), truncating toward zero.
func Trunc() functions.Def { return unary("TRUNC", "integer part", math.Trunc) }

// LogB returns the definition for LOGB(n, base).
func LogB() functions.Def {
	return functions.Def{
		Name:      "LOGB",
		Signature: "<n-n:n>",
		Doc:       "logarithm in an arbitrary base",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			base := args[1].Float()
			if base <= 0 || base == 1 {
				return types.NumberValue(math.NaN()), nil
			}
			return types.NumberValue(math.Log(args[0].Float()) / math.Log(base)), nil
		},
	}
}

// Clamp returns the definition for CLAMP(n, min, max).
func Clamp() functions.Def {
	return functions.Def{
		Name:      "CLAMP",
		Signature: "<n-n-n:n>",
		Doc:       "limit a value to a range",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			n, lo, hi := args[0].Float(), args[1].Float(), args[2].Float()
			if lo > hi {
				return types.Undefined, nil
			}
			return types.NumberValue(math.Min(math.Max(n, lo), hi)), nil
		},
	}
}

// Hypot returns the definition for HYPOT(a, b).
func Hypot() functions.Def {
	return functions.Def{
		Name:      "HYPOT",
		Signature: "<n-n:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(math.Hypot(args[0].Float(), args[1].Float())), nil
		},
	}
}

// Mod returns the definition for MOD(a, b). The result takes the sign of b,
// so MOD(-1, 24) is 23.
func Mod() functions.Def {
	return functions.Def{
		Name:      "MOD",
		Signature: "<n-n:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			a, b := args[0].Float(), args[1].Float()
			r := math.Mod(a, b)
			if r != 0 && (r < 0) != (b < 0) {
				r += b
			}
			return types.NumberValue(r), nil
		},
	}
}

func constant(name string, v float64) functions.Def {
	return functions.Def{
		Name:      name,
		Signature: "<:n>",
		Fn: func(context.Context, []types.Value) (types.Value, error) {
			return types.NumberValue(v), nil
		},
	}
}

// Pi returns the definition for PI().
func Pi() functions.Def { return constant("PI", math.Pi) }

// E returns the definition for E().
func E() functions.Def { return constant("E", math.E) }

func floats(args []types.Value) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = a.Float()
	}
	return out
}

// Median returns the definition for MEDIAN(n, ...).
func Median() functions.Def {
	return functions.Def{
		Name:      "MEDIAN",
		Signature: "<n+:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(percentile(floats(args), 50)), nil
		},
	}
}

// Variance returns the definition for VARIANCE(n, ...), the population
// variance.
func Variance() functions.Def {
	return functions.Def{
		Name:      "VARIANCE",
		Signature: "<n+:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(variance(floats(args))), nil
		},
	}
}

// Stddev returns the definition for STDDEV(n, ...), the population standard
// deviation. The temporal STND uses the sample deviation instead.
func Stddev() functions.Def {
	return functions.Def{
		Name:      "STDDEV",
		Signature: "<n+:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(math.Sqrt(variance(floats(args)))), nil
		},
	}
}

// Percentile returns the definition for PERCENTILE(p, n, ...) with p in
// [0, 100], interpolating linearly between ranks.
func Percentile() functions.Def {
	return functions.Def{
		Name:      "PERCENTILE",
		Signature: "<n-n+:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			p := args[0].Float()
			if p < 0 || p > 100 {
				return types.Undefined, nil
			}
			return types.NumberValue(percentile(floats(args[1:]), p)), nil
		},
	}
}

// Mode returns the definition for MODE(n, ...). Ties go to the smallest
// value.
func Mode() functions.Def {
	return functions.Def{
		Name:      "MODE",
		Signature: "<n+:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			nums := floats(args)
			slices.Sort(nums)
			best, bestCount := nums[0], 0
			for i := 0; i < len(nums); {
				j := i + 1
				for j < len(nums) && nums[j] == nums[i] {
					j++
				}
				if j-i > bestCount {
					best, bestCount = nums[i], j-i
				}
				i = j
			}
			return types.NumberValue(best), nil
		},
	}
}

func variance(nums []float64) float64 {
	mean := 0.0
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	sum := 0.0
	for _, n := range nums {
		d := n - mean
		sum += d * d
	}
	return sum / float64(len(nums))
}

func percentile(nums []float64, p float64) float64 {
	sorted := slices.Clone(nums)
	slices.Sort(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
