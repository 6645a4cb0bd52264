package evaluator

import (
	"slices"
	"strings"
	"sync"

	"github.com/sandrolain/goexpr/pkg/types"
)

// ArgKind is the kind every argument of a builtin is coerced to.
type ArgKind uint8

const (
	// ArgNumber accepts numbers and booleans.
	ArgNumber ArgKind = iota
	// ArgDate accepts date-times and Unix seconds.
	ArgDate
	// ArgString accepts any defined value, rendered as text.
	ArgString
)

// FunctionDef defines a built-in function.
type FunctionDef struct {
	Name    string
	Arity   int
	ArgKind ArgKind
	Impl    FunctionImpl
}

// FunctionImpl is the implementation of a builtin. Arguments have already
// been checked and coerced to the definition's ArgKind.
type FunctionImpl func(args []types.Value) types.Value

var (
	builtinFunctions     map[string]*FunctionDef
	builtinFunctionsOnce sync.Once

	temporalFunctions     map[string]temporalFunc
	temporalFunctionsOnce sync.Once
)

// initBuiltinFunctions initializes the built-in function registry.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		defs := []*FunctionDef{
			// Single parameter math
			{Name: "ABS", Arity: 1, Impl: math1(fnAbs)},
			{Name: "ACOS", Arity: 1, Impl: math1(fnAcos)},
			{Name: "ASIN", Arity: 1, Impl: math1(fnAsin)},
			{Name: "ATAN", Arity: 1, Impl: math1(fnAtan)},
			{Name: "CEILING", Arity: 1, Impl: math1(fnCeiling)},
			{Name: "COS", Arity: 1, Impl: math1(fnCos)},
			{Name: "FLOOR", Arity: 1, Impl: math1(fnFloor)},
			{Name: "LOG", Arity: 1, Impl: math1(fnLog)},
			{Name: "LOG10", Arity: 1, Impl: math1(fnLog10)},
			{Name: "ROUND", Arity: 1, Impl: math1(fnRound)},
			{Name: "SIGN", Arity: 1, Impl: math1(fnSign)},
			{Name: "SIN", Arity: 1, Impl: math1(fnSin)},
			{Name: "SQRT", Arity: 1, Impl: math1(fnSqrt)},
			{Name: "TAN", Arity: 1, Impl: math1(fnTan)},
			{Name: "ISNAN", Arity: 1, Impl: fnIsNaN},

			// Two parameter math
			{Name: "POW", Arity: 2, Impl: math2(fnPow)},
			{Name: "ATAN2", Arity: 2, Impl: math2(fnAtan2)},
			{Name: "IFNAN", Arity: 2, Impl: math2(fnIfNaN)},
			{Name: "RND", Arity: 2, Impl: math2(fnRnd)},

			// Three parameter math
			{Name: "DEADBAND", Arity: 3, Impl: fnDeadband},

			// Date parts
			{Name: "HOUR", Arity: 1, ArgKind: ArgDate, Impl: fnHour},
			{Name: "MINUTE", Arity: 1, ArgKind: ArgDate, Impl: fnMinute},
			{Name: "DAY", Arity: 1, ArgKind: ArgDate, Impl: fnDay},
			{Name: "DAYOFWEEK", Arity: 1, ArgKind: ArgDate, Impl: fnDayOfWeek},
			{Name: "MONTH", Arity: 1, ArgKind: ArgDate, Impl: fnMonth},

			// Strings
			{Name: "TOUPPER", Arity: 1, ArgKind: ArgString, Impl: fnToUpper},
			{Name: "TOUPPERINVARIANT", Arity: 1, ArgKind: ArgString, Impl: fnToUpperInvariant},
			{Name: "TOLOWER", Arity: 1, ArgKind: ArgString, Impl: fnToLower},
			{Name: "TOLOWERINVARIANT", Arity: 1, ArgKind: ArgString, Impl: fnToLowerInvariant},
			{Name: "TRIM", Arity: 1, ArgKind: ArgString, Impl: fnTrim},
			{Name: "NORMALIZE", Arity: 1, ArgKind: ArgString, Impl: fnNormalize},
			{Name: "CONTAINS", Arity: 2, ArgKind: ArgString, Impl: fnContains},
			{Name: "STARTSWITH", Arity: 2, ArgKind: ArgString, Impl: fnStartsWith},
			{Name: "ENDSWITH", Arity: 2, ArgKind: ArgString, Impl: fnEndsWith},
		}
		builtinFunctions = make(map[string]*FunctionDef, len(defs))
		for _, def := range defs {
			builtinFunctions[def.Name] = def
		}
	})
}

// GetFunction retrieves a builtin by name, ignoring case.
func GetFunction(name string) (*FunctionDef, bool) {
	initBuiltinFunctions()
	fn, ok := builtinFunctions[strings.ToUpper(name)]
	return fn, ok
}

// BuiltinNames lists the builtin function names, sorted.
func BuiltinNames() []string {
	initBuiltinFunctions()
	names := make([]string, 0, len(builtinFunctions))
	for name := range builtinFunctions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func getTemporalFunction(name string) (temporalFunc, bool) {
	temporalFunctionsOnce.Do(func() {
		num := func(f func(TemporalObject, UnitValue, UnitValue) float64) temporalFunc {
			return func(t TemporalObject, start, end UnitValue) types.Value {
				return types.NumberValue(f(t, start, end))
			}
		}
		boolean := func(f func(TemporalObject, UnitValue, UnitValue) bool) temporalFunc {
			return func(t TemporalObject, start, end UnitValue) types.Value {
				return types.BoolValue(f(t, start, end))
			}
		}
		temporalFunctions = map[string]temporalFunc{
			types.TemporalAll:          boolean(TemporalObject.All),
			types.TemporalAny:          boolean(TemporalObject.Any),
			types.TemporalAverage:      num(TemporalObject.Average),
			types.TemporalCount:        num(TemporalObject.Count),
			types.TemporalCountLeading: num(TemporalObject.Count),
			types.TemporalDelta:        num(TemporalObject.Delta),
			types.TemporalForecast:     num(TemporalObject.Forecast),
			types.TemporalMax:          num(TemporalObject.Max),
			types.TemporalMin:          num(TemporalObject.Min),
			types.TemporalSlope:        num(TemporalObject.Slope),
			types.TemporalStnd:         num(TemporalObject.StandardDeviation),
		}
	})
	fn, ok := temporalFunctions[strings.ToUpper(name)]
	return fn, ok
}
