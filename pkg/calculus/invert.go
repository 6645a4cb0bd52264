package calculus

import (
	"github.com/sandrolain/goexpr/pkg/types"
)

// Invert solves y = f(x) for x and returns the tree for x in terms of y.
//
// x must appear in f exactly once. Each step strips the outermost operation
// of f by applying its inverse to y: add subtracts the other terms, multiply
// divides by the other factors, subtract and divide look at which side holds
// x, unary minus negates y. Powers are not inverted here even when the
// exponent is constant.
func Invert(f, y types.Node, x string) (types.Node, error) {
	switch occurrences(f, x) {
	case 0:
		return nil, types.Errorf(types.ErrVariableNotFound, "variable %q not found", x).WithNode(f)
	case 1:
		return invert(f, y, x)
	default:
		return nil, types.Errorf(types.ErrMultipleOccurrences, "variable %q appears more than once", x).WithNode(f)
	}
}

func invert(f, y types.Node, x string) (types.Node, error) {
	switch f := f.(type) {
	case *types.Variable:
		if f.Name() == x {
			return y, nil
		}
	case *types.Unary:
		switch f.Kind() {
		case types.KindIdentity:
			return invert(f.Child(), y, x)
		case types.KindUnaryMinus:
			return invert(f.Child(), types.Negate(y), x)
		}
	case *types.Nary:
		switch f.Kind() {
		case types.KindAdd, types.KindMultiply:
			holder, others, err := split(f, x)
			if err != nil {
				return nil, err
			}
			if f.Kind() == types.KindAdd {
				return invert(holder, types.Subtract(y, types.AddOf(others)), x)
			}
			return invert(holder, types.Divide(y, types.MultiplyOf(others)), x)
		}
	case *types.Binary:
		inLeft, inRight := contains(f.Left(), x), contains(f.Right(), x)
		if inLeft && inRight {
			return nil, types.Errorf(types.ErrMultipleOccurrences, "variable %q on both sides of %s", x, f.Kind()).WithNode(f)
		}
		switch f.Kind() {
		case types.KindSubtract:
			if inLeft {
				// l - r = y ==> l = y + r
				return invert(f.Left(), types.Add(y, f.Right()), x)
			}
			// l - r = y ==> r = l - y
			return invert(f.Right(), types.Subtract(f.Left(), y), x)
		case types.KindDivide:
			if inLeft {
				// l / r = y ==> l = y * r
				return invert(f.Left(), types.Multiply(y, f.Right()), x)
			}
			// l / r = y ==> r = l / y
			return invert(f.Right(), types.Divide(f.Left(), y), x)
		}
	}
	return nil, unsupported("invert", types.ErrUnsupportedShape, f)
}

// split separates the one child of f holding x from the others.
func split(f *types.Nary, x string) (types.Node, []types.Node, error) {
	var holder types.Node
	others := make([]types.Node, 0, len(f.Children())-1)
	for _, c := range f.Children() {
		if !contains(c, x) {
			others = append(others, c)
			continue
		}
		if holder != nil {
			return nil, nil, types.Errorf(types.ErrMultipleOccurrences, "variable %q in more than one operand of %s", x, f.Kind()).WithNode(f)
		}
		holder = c
	}
	return holder, others, nil
}
