package evaluator

import (
	"context"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

// UnitValue is a unit-tagged window bound, such as the "1h" period of
// AVERAGE(power, 1h).
type UnitValue = units.Quantity

// TemporalObject is a time series that temporal aggregates can query.
//
// Window bounds are expressed relative to the latest sample: start is how far
// back the window reaches and end how far back it stops (zero for "now").
type TemporalObject interface {
	All(start, end UnitValue) bool
	Any(start, end UnitValue) bool
	Average(start, end UnitValue) float64
	Count(start, end UnitValue) float64
	Delta(start, end UnitValue) float64
	Forecast(start, end UnitValue) float64
	Max(start, end UnitValue) float64
	Min(start, end UnitValue) float64
	Slope(start, end UnitValue) float64
	StandardDeviation(start, end UnitValue) float64

	// DeltaLastAndPrevious is the difference between the last two samples.
	DeltaLastAndPrevious() float64
	// DeltaTimeLastAndPrevious is the time between the last two samples,
	// expressed in unit ("s" when empty or unknown).
	DeltaTimeLastAndPrevious(unit string) float64

	// IsInRange reports whether the series holds enough history for the
	// window. When it does not, the shortfall is returned.
	IsInRange(start, end UnitValue) (bool, time.Duration)
}

// ModelRunner runs a model over one row of values per call argument.
type ModelRunner interface {
	Run(ctx context.Context, rows [][]types.Value) (types.Value, error)
}

// PropertySource resolves named properties. Sources passed to Eval and values
// returned by variables may implement it.
type PropertySource interface {
	Property(name string) (types.Value, bool)
}

// FunctionSource resolves host functions that are not builtins.
type FunctionSource interface {
	CallFunction(ctx context.Context, name string, args []types.Value) (types.Value, bool, error)
}

// Getter looks a variable up in the evaluation source.
type Getter func(source any, name string) types.Value

// TemporalResolver returns the series behind a variable name, or nil.
type TemporalResolver func(name string) TemporalObject

// ModelResolver returns the runner for a model id, or nil.
type ModelResolver func(name string) ModelRunner
