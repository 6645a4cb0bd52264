package evaluator

import (
	"context"
	"fmt"
	"math"

	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

type temporalFunc func(t TemporalObject, start, end UnitValue) types.Value

func (e *Evaluator) evalTemporal(ctx context.Context, n *types.Temporal, ec *EvalContext) (types.Value, error) {
	switch n.Function() {
	case types.TemporalDelta, types.TemporalDeltaTime:
		return e.evalDelta(ctx, n, ec, n.Function() == types.TemporalDeltaTime)
	case types.TemporalStnd:
		return e.evalStandardDeviation(ctx, n, ec)
	}

	if l, ok := n.Child().(*types.List); ok && l.Kind() == types.KindArray {
		return types.Undefined, types.Errorf(types.ErrTemporalArray, "cannot %s an array without time", n.Function()).WithNode(n)
	}

	series, start, end, ok, err := e.resolveSeries(ctx, n, ec)
	if err != nil {
		return types.Undefined, err
	}
	if ok {
		if fn, known := getTemporalFunction(n.Function()); known {
			return fn(series, start, end), nil
		}
	}

	return e.evalNode(ctx, n.Child(), ec)
}

// evalDelta computes DELTA and DELTA_TIME. Without a period it is the change
// between the last two samples; anything that is not a series has no delta.
func (e *Evaluator) evalDelta(ctx context.Context, n *types.Temporal, ec *EvalContext, useTime bool) (types.Value, error) {
	if n.TimePeriod() == nil {
		series := e.seriesOf(n.Child())
		if series == nil {
			return types.NumberValue(0), nil
		}
		if useTime {
			return types.NumberValue(series.DeltaTimeLastAndPrevious(n.UnitOfMeasureName())), nil
		}
		return types.NumberValue(series.DeltaLastAndPrevious()), nil
	}

	series, start, end, ok, err := e.resolveSeries(ctx, n, ec)
	if err != nil || !ok {
		return types.NumberValue(0), err
	}
	return types.NumberValue(series.Delta(start, end)), nil
}

func (e *Evaluator) evalStandardDeviation(ctx context.Context, n *types.Temporal, ec *EvalContext) (types.Value, error) {
	if l, ok := n.Child().(*types.List); ok && l.Kind() == types.KindArray {
		items, err := e.evalAll(ctx, l.Children(), ec)
		if err != nil {
			return types.Undefined, err
		}
		nums := make([]float64, len(items))
		for i, v := range items {
			f, ok := v.ToFloat()
			if !ok {
				f = math.NaN()
			}
			nums[i] = f
		}
		return types.NumberValue(sampleStdDev(nums)), nil
	}

	series, start, end, ok, err := e.resolveSeries(ctx, n, ec)
	if err != nil || !ok {
		return types.NumberValue(0), err
	}
	return types.NumberValue(series.StandardDeviation(start, end)), nil
}

// seriesOf returns the series a node stands for without evaluating it: a
// wrapped series, or the series the resolver knows for a variable.
func (e *Evaluator) seriesOf(n types.Node) TemporalObject {
	if w, ok := n.(*types.Wrapped); ok {
		if series, ok := w.Value().(TemporalObject); ok {
			return series
		}
	}
	if name, ok := types.VariableName(n); ok && e.opts.Temporal != nil {
		return e.opts.Temporal(name)
	}
	return nil
}

// resolveSeries finds the series for a temporal node with a period. The
// period must be a time quantity. When the series lacks history for the
// window and the child is a named variable, the run is marked unsuccessful
// but the series is still used.
func (e *Evaluator) resolveSeries(ctx context.Context, n *types.Temporal, ec *EvalContext) (TemporalObject, UnitValue, UnitValue, bool, error) {
	start, ok, err := e.unitValue(ctx, n.TimePeriod(), ec)
	if err != nil || !ok {
		return nil, UnitValue{}, UnitValue{}, false, err
	}
	end, _, err := e.unitValue(ctx, n.TimeFrom(), ec)
	if err != nil {
		return nil, UnitValue{}, UnitValue{}, false, err
	}

	v, err := e.evalNode(ctx, n.Child(), ec)
	if err != nil {
		return nil, UnitValue{}, UnitValue{}, false, err
	}

	var series TemporalObject
	if v.IsObject() {
		series, _ = v.Object().(TemporalObject)
	}

	name := ""
	if series == nil {
		if vn, ok := types.VariableName(n.Child()); ok && e.opts.Temporal != nil {
			name = vn
			series = e.opts.Temporal(vn)
		}
	}
	if series == nil {
		return nil, UnitValue{}, UnitValue{}, false, nil
	}

	if inRange, shortfall := series.IsInRange(start, end); !inRange && name != "" {
		e.fail(fmt.Sprintf("Variable '%s' does not have sufficient data for period %s", name, shortfall))
		if e.opts.Debug {
			e.logger.Debug("insufficient temporal data", "variable", name, "shortfall", shortfall)
		}
	}
	return series, start, end, true, nil
}

// unitValue evaluates a window bound. A leading unary minus negates it.
func (e *Evaluator) unitValue(ctx context.Context, n types.Node, ec *EvalContext) (UnitValue, bool, error) {
	sign := 1.0
	if u, ok := n.(*types.Unary); ok && u.Kind() == types.KindUnaryMinus {
		sign = -1
		n = u.Child()
	}
	if n == nil || n.Unit() == "" || !units.IsTimeUnit(n.Unit()) {
		return UnitValue{}, false, nil
	}

	v, err := e.evalNode(ctx, n, ec)
	if err != nil {
		return UnitValue{}, false, err
	}
	f, ok := v.ToFloat()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return UnitValue{}, false, nil
	}
	return UnitValue{Value: f * sign, Unit: n.Unit()}, true, nil
}
