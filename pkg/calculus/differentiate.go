package calculus

import (
	"math"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Differentiate returns the derivative of n with respect to the variable x.
//
// Supported: constants, variables, add and subtract (sum rule), multiply
// (product rule, applied pairwise), powers with a constant exponent or a
// constant base, unary minus and parentheses. Variables other than x are
// returned unchanged rather than as zero. Every other node yields an
// *UnsupportedError.
func Differentiate(n types.Node, x string) (types.Node, error) {
	switch n := n.(type) {
	case *types.Constant:
		return types.Num(0), nil
	case *types.Variable:
		if n.Name() == x {
			return types.Num(1), nil
		}
		return n, nil
	case *types.Unary:
		return differentiateUnary(n, x)
	case *types.Nary:
		switch n.Kind() {
		case types.KindAdd:
			terms := make([]types.Node, 0, len(n.Children()))
			for _, c := range n.Children() {
				d, err := Differentiate(c, x)
				if err != nil {
					return nil, err
				}
				terms = append(terms, d)
			}
			return types.AddOf(terms), nil
		case types.KindMultiply:
			return differentiateProduct(n.Children(), x)
		}
	case *types.Binary:
		switch n.Kind() {
		case types.KindSubtract:
			dl, err := Differentiate(n.Left(), x)
			if err != nil {
				return nil, err
			}
			dr, err := Differentiate(n.Right(), x)
			if err != nil {
				return nil, err
			}
			return types.Subtract(dl, dr), nil
		case types.KindPower:
			return differentiatePower(n, x)
		}
	}
	return nil, unsupported("differentiate", types.ErrNotSupported, n)
}

func differentiateUnary(n *types.Unary, x string) (types.Node, error) {
	switch n.Kind() {
	case types.KindIdentity:
		return Differentiate(n.Child(), x)
	case types.KindUnaryMinus:
		d, err := Differentiate(n.Child(), x)
		if err != nil {
			return nil, err
		}
		return types.Negate(d), nil
	}
	return nil, unsupported("differentiate", types.ErrNotSupported, n)
}

// differentiateProduct folds (f*g)' = f'*g + f*g' from the left.
func differentiateProduct(factors []types.Node, x string) (types.Node, error) {
	acc := factors[0]
	dacc, err := Differentiate(acc, x)
	if err != nil {
		return nil, err
	}
	for _, g := range factors[1:] {
		dg, err := Differentiate(g, x)
		if err != nil {
			return nil, err
		}
		dacc = types.Add(types.Multiply(dacc, g), types.Multiply(acc, dg))
		acc = types.Multiply(acc, g)
	}
	return dacc, nil
}

func differentiatePower(n *types.Binary, x string) (types.Node, error) {
	base, exp := n.Left(), n.Right()

	// (f^k)' = k * f^(k-1) * f'
	if k, ok := types.IsNumber(exp); ok {
		d, err := Differentiate(base, x)
		if err != nil {
			return nil, err
		}
		return types.Multiply(types.Num(k), types.Power(base, types.Num(k-1)), d), nil
	}

	// (c^f)' = c^f * ln(c) * f'
	if c, ok := types.IsNumber(base); ok {
		d, err := Differentiate(exp, x)
		if err != nil {
			return nil, err
		}
		return types.Multiply(types.Power(base, exp), types.Num(math.Log(c)), d), nil
	}

	return nil, unsupported("differentiate", types.ErrNotSupported, n)
}
