package rewrite

import (
	"math"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

// simplifyCommutative folds add and multiply: same-kind children are pulled
// up, subtract and divide children are canonicalized on the way, and number
// constants collapse into one trailing accumulator. The accumulator is
// dropped when it equals the identity of the operator.
func simplifyCommutative(n *types.Nary) (types.Node, error) {
	seed, calc := 0.0, func(a, b float64) float64 { return a + b }
	combineUnits := units.Sum
	if n.Kind() == types.KindMultiply {
		seed, calc = 1.0, func(a, b float64) float64 { return a * b }
		combineUnits = func(a, b string) string { return units.Product(a, b) }
	}

	var promoted []types.Node
	var pull func(c types.Node) error
	pull = func(c types.Node) error {
		switch {
		case c.Kind() == n.Kind():
			for _, g := range c.(*types.Nary).Children() {
				if err := pull(g); err != nil {
					return err
				}
			}
		case c.Kind() == types.KindSubtract && n.Kind() == types.KindAdd:
			b := c.(*types.Binary)
			neg, err := simplify(types.Negate(b.Right()))
			if err != nil {
				return err
			}
			if err := pull(b.Left()); err != nil {
				return err
			}
			return pull(neg)
		case c.Kind() == types.KindDivide && n.Kind() == types.KindMultiply && !isOne(c.(*types.Binary).Left()):
			// a/b ==> a * (1/b); a bare reciprocal is already canonical.
			b := c.(*types.Binary)
			inv, err := simplify(types.Divide(types.Num(1), b.Right()))
			if err != nil {
				return err
			}
			if err := pull(b.Left()); err != nil {
				return err
			}
			return pull(inv)
		default:
			promoted = append(promoted, c)
		}
		return nil
	}
	for _, c := range n.Children() {
		sc, err := simplify(c)
		if err != nil {
			return nil, err
		}
		if err := pull(sc); err != nil {
			return nil, err
		}
	}

	acc, accUnit := seed, units.None
	var rest []types.Node
	for _, c := range promoted {
		if f, ok := types.IsNumber(c); ok {
			acc = calc(acc, f)
			accUnit = combineUnits(accUnit, c.Unit())
			continue
		}
		rest = append(rest, c)
	}
	if accUnit == units.Error {
		// Mismatched constant units stay visible to the unit checker.
		return rebuildNary(n, promoted), nil
	}

	if len(rest) == 0 {
		return types.NewNumber(acc, types.WithUnit(accUnit)), nil
	}
	if acc != seed {
		rest = append(rest, types.NewNumber(acc, types.WithUnit(accUnit)))
	}
	return rebuildNary(n, rest), nil
}

func isOne(n types.Node) bool {
	f, ok := types.IsNumber(n)
	return ok && f == 1
}

func rebuildNary(n *types.Nary, children []types.Node) types.Node {
	if len(children) == 1 {
		return types.Inherit(n, children[0])
	}
	return types.NewNary(n.Kind(), children, types.WithUnit(n.Unit()), types.WithType(n.DeclaredType()))
}

var mathOps = map[types.Kind]func(a, b float64) float64{
	types.KindSubtract: func(a, b float64) float64 { return a - b },
	types.KindDivide:   func(a, b float64) float64 { return a / b },
	types.KindPower:    math.Pow,
}

// simplifyMath folds subtract, divide and power, cancels identical operands
// and canonicalizes subtraction and division into add and multiply.
func simplifyMath(n *types.Binary) (types.Node, error) {
	left, err := simplify(n.Left())
	if err != nil {
		return nil, err
	}
	right, err := simplify(n.Right())
	if err != nil {
		return nil, err
	}

	lf, lok := types.IsNumber(left)
	rf, rok := types.IsNumber(right)
	if lok && rok {
		c := types.NewNumber(mathOps[n.Kind()](lf, rf))
		return types.SetUnit(c, valueUnit(types.NewBinary(n.Kind(), left, right))), nil
	}

	kind := n.Kind()
	if kind == types.KindPower {
		return rebuildBinary(n, left, right), nil
	}

	// a - a, a / a
	if sameValue(left, right) {
		if kind == types.KindSubtract {
			return types.Num(0), nil
		}
		return types.Num(1), nil
	}

	// (a + b) - a, (a * b) / a
	if nary, ok := left.(*types.Nary); ok && !types.IsConstant(right) && deterministic(right) {
		if (kind == types.KindSubtract && nary.Kind() == types.KindAdd) ||
			(kind == types.KindDivide && nary.Kind() == types.KindMultiply) {
			if rest, ok := exceptFirst(nary.Children(), right); ok {
				return simplify(types.NaryOf(nary.Kind(), rest))
			}
		}
	}

	switch kind {
	case types.KindDivide:
		if rok && right.Unit() == units.None {
			// x / c ==> x * (1/c)
			return simplify(types.Multiply(left, types.NewNumber(1/rf)))
		}
		if m, ok := right.(*types.Nary); ok && m.Kind() == types.KindMultiply {
			// a / (b * c) ==> a * (1/b) * (1/c)
			factors := []types.Node{left}
			for _, c := range m.Children() {
				factors = append(factors, types.Divide(types.Num(1), c))
			}
			return simplify(types.Multiply(factors...))
		}
	case types.KindSubtract:
		if rok {
			// x - c ==> x + (-c)
			return simplify(types.Add(left, types.NewNumber(-rf, types.WithUnit(right.Unit()))))
		}
		if a, ok := right.(*types.Nary); ok && a.Kind() == types.KindAdd {
			// a - (b + c) ==> a + (-b) + (-c)
			terms := []types.Node{left}
			for _, c := range a.Children() {
				terms = append(terms, types.Negate(c))
			}
			return simplify(types.Add(terms...))
		}
	}
	return rebuildBinary(n, left, right), nil
}

func rebuildBinary(n *types.Binary, left, right types.Node) types.Node {
	if left == n.Left() && right == n.Right() {
		return n
	}
	return types.NewBinary(n.Kind(), left, right, types.WithUnit(n.Unit()), types.WithType(n.DeclaredType()))
}

// exceptFirst returns children without the first one equal to x.
func exceptFirst(children []types.Node, x types.Node) ([]types.Node, bool) {
	for i, c := range children {
		if types.Equal(c, x) {
			out := make([]types.Node, 0, len(children)-1)
			out = append(out, children[:i]...)
			return append(out, children[i+1:]...), true
		}
	}
	return nil, false
}

// sameValue reports whether a and b are structurally equal and evaluate to
// the same value every time, so a - b can be folded to zero.
func sameValue(a, b types.Node) bool {
	return types.Equal(a, b) && deterministic(a)
}

// deterministic reports whether n is free of timers and random numbers.
func deterministic(n types.Node) bool {
	ok := true
	types.Walk(n, func(c types.Node) bool {
		switch c := c.(type) {
		case *types.Timer:
			ok = false
		case *types.Call:
			if strings.EqualFold(c.Name(), "RND") {
				ok = false
			}
		}
		return ok
	})
	return ok
}
