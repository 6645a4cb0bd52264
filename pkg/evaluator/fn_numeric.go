package evaluator

import (
	"math"
	"math/rand/v2"

	"github.com/sandrolain/goexpr/pkg/types"
)

func math1(f func(float64) float64) FunctionImpl {
	return func(args []types.Value) types.Value {
		return types.NumberValue(f(args[0].Float()))
	}
}

func math2(f func(float64, float64) float64) FunctionImpl {
	return func(args []types.Value) types.Value {
		return types.NumberValue(f(args[0].Float(), args[1].Float()))
	}
}

func fnAbs(x float64) float64     { return math.Abs(x) }
func fnAcos(x float64) float64    { return math.Acos(x) }
func fnAsin(x float64) float64    { return math.Asin(x) }
func fnAtan(x float64) float64    { return math.Atan(x) }
func fnCeiling(x float64) float64 { return math.Ceil(x) }
func fnCos(x float64) float64     { return math.Cos(x) }
func fnFloor(x float64) float64   { return math.Floor(x) }
func fnLog(x float64) float64     { return math.Log(x) }
func fnLog10(x float64) float64   { return math.Log10(x) }
func fnSin(x float64) float64     { return math.Sin(x) }
func fnSqrt(x float64) float64    { return math.Sqrt(x) }
func fnTan(x float64) float64     { return math.Tan(x) }

// fnRound rounds half to even.
func fnRound(x float64) float64 { return math.RoundToEven(x) }

func fnSign(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func fnIsNaN(args []types.Value) types.Value {
	return types.BoolValue(math.IsNaN(args[0].Float()))
}

func fnPow(x, y float64) float64   { return math.Pow(x, y) }
func fnAtan2(y, x float64) float64 { return math.Atan2(y, x) }

// fnIfNaN substitutes fallback for a NaN value.
func fnIfNaN(x, fallback float64) float64 {
	if math.IsNaN(x) {
		return fallback
	}
	return x
}

// fnRnd returns a random integer in [lo, hi).
func fnRnd(lo, hi float64) float64 {
	a, b := int64(lo), int64(hi)
	if b <= a {
		return float64(a)
	}
	return float64(a + rand.Int64N(b-a))
}

// fnDeadband holds ref while x stays within band of it.
func fnDeadband(args []types.Value) types.Value {
	x, ref, band := args[0].Float(), args[1].Float(), args[2].Float()
	if math.Abs(x-ref) <= band {
		return types.NumberValue(ref)
	}
	return types.NumberValue(x)
}
