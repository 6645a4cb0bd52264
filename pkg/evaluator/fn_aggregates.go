package evaluator

import (
	"context"
	"math"

	"github.com/sandrolain/goexpr/pkg/types"
)

// evalAggregate reduces an array child. A scalar child degrades: COUNT
// yields 1 or 0 from its truthiness and the other aggregates yield the
// scalar itself.
func (e *Evaluator) evalAggregate(ctx context.Context, n *types.Aggregate, ec *EvalContext) (types.Value, error) {
	items, isArray, err := e.elements(ctx, n.Child(), ec)
	if err != nil {
		return types.Undefined, err
	}

	if !isArray {
		scalar := items[0]
		if n.Kind() != types.KindCount || scalar.IsUndefined() {
			return scalar, nil
		}
		if b, _ := truthy(scalar); b {
			return types.NumberValue(1), nil
		}
		return types.NumberValue(0), nil
	}

	switch n.Kind() {
	case types.KindSum:
		return fnSum(items), nil
	case types.KindAverage:
		return fnAverage(items), nil
	case types.KindMin, types.KindMax:
		if len(items) == 0 {
			return types.Undefined, types.Errorf(types.ErrEmptyAggregate, "%s of an empty array", n.Kind()).WithNode(n)
		}
		return fnMinMax(items, n.Kind() == types.KindMax), nil
	case types.KindCount:
		return fnCount(items), nil
	case types.KindAny, types.KindAll:
		return fnAnyAll(items, n.Kind() == types.KindAll), nil
	case types.KindFirst:
		if len(items) == 0 {
			return types.Undefined, nil
		}
		return items[0], nil
	}
	return types.Undefined, types.Errorf(types.ErrNotSupported, "unknown aggregate %s", n.Kind()).WithNode(n)
}

// elements evaluates an aggregate child. isArray is false when the child is
// a scalar, in which case items holds its single value.
func (e *Evaluator) elements(ctx context.Context, child types.Node, ec *EvalContext) (items []types.Value, isArray bool, err error) {
	switch c := child.(type) {
	case *types.List:
		if c.Kind() == types.KindArray {
			items, err = e.evalAll(ctx, c.Children(), ec)
			return items, true, err
		}
	case *types.Each:
		items, err = e.evalEach(ctx, c, ec)
		return items, true, err
	}

	v, err := e.evalNode(ctx, child, ec)
	if err != nil {
		return nil, false, err
	}
	if items, ok := elementsOf(v); ok {
		return items, true, nil
	}
	return []types.Value{v}, false, nil
}

// evalEach expands an Each comprehension to one body value per element of
// its argument. A scalar argument is a one-element array.
func (e *Evaluator) evalEach(ctx context.Context, n *types.Each, ec *EvalContext) ([]types.Value, error) {
	args, _, err := e.elements(ctx, n.Argument(), ec)
	if err != nil {
		return nil, err
	}
	out := make([]types.Value, 0, len(args))
	for _, arg := range args {
		v, err := e.evalNode(ctx, n.Body(), ec.withBinding(n.Variable(), arg))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Evaluator) evalAll(ctx context.Context, nodes []types.Node, ec *EvalContext) ([]types.Value, error) {
	out := make([]types.Value, 0, len(nodes))
	for _, n := range nodes {
		v, err := e.evalNode(ctx, n, ec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// numbers converts items to floats. ok is false when any item is Undefined
// or not numeric.
func numbers(items []types.Value) ([]float64, bool) {
	out := make([]float64, 0, len(items))
	for _, v := range items {
		f, ok := v.ToFloat()
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

func fnSum(items []types.Value) types.Value {
	nums, ok := numbers(items)
	if !ok {
		return types.Undefined
	}
	sum := 0.0
	for _, f := range nums {
		sum += f
	}
	return types.NumberValue(sum)
}

func fnAverage(items []types.Value) types.Value {
	if len(items) == 0 {
		return types.Undefined
	}
	sum := fnSum(items)
	if sum.IsUndefined() {
		return types.Undefined
	}
	return types.NumberValue(sum.Float() / float64(len(items)))
}

func fnMinMax(items []types.Value, isMax bool) types.Value {
	nums, ok := numbers(items)
	if !ok {
		return types.Undefined
	}
	result := nums[0]
	for _, f := range nums[1:] {
		if isMax {
			result = math.Max(result, f)
		} else {
			result = math.Min(result, f)
		}
	}
	return types.NumberValue(result)
}

// fnCount counts truthy items.
func fnCount(items []types.Value) types.Value {
	count := 0
	for _, v := range items {
		if b, _ := truthy(v); b {
			count++
		}
	}
	return types.NumberValue(float64(count))
}

// fnAnyAll folds items like or/and. Undefined or non-boolean items make the
// result Undefined.
func fnAnyAll(items []types.Value, all bool) types.Value {
	for _, v := range items {
		b, ok := truthy(v)
		if !ok {
			return types.Undefined
		}
		if all && !b {
			return types.BoolValue(false)
		}
		if !all && b {
			return types.BoolValue(true)
		}
	}
	return types.BoolValue(all)
}

// sampleStdDev is the sample standard deviation, 0 for fewer than two values.
func sampleStdDev(nums []float64) float64 {
	if len(nums) < 2 {
		return 0
	}
	mean := 0.0
	for _, f := range nums {
		mean += f
	}
	mean /= float64(len(nums))
	sq := 0.0
	for _, f := range nums {
		sq += (f - mean) * (f - mean)
	}
	return math.Sqrt(sq / float64(len(nums)-1))
}
