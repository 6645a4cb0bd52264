package rewrite

import (
	"math"

	"github.com/sandrolain/goexpr/pkg/analysis"
	"github.com/sandrolain/goexpr/pkg/types"
)

// complements maps a comparison to its logical negation.
var complements = map[types.Kind]types.Kind{
	types.KindIs:             types.KindNotEquals,
	types.KindEquals:         types.KindNotEquals,
	types.KindNotEquals:      types.KindEquals,
	types.KindGreater:        types.KindLessOrEqual,
	types.KindLessOrEqual:    types.KindGreater,
	types.KindLess:           types.KindGreaterOrEqual,
	types.KindGreaterOrEqual: types.KindLess,
}

// mirrored maps a comparison to the one that holds after both sides are
// divided by a negative number.
var mirrored = map[types.Kind]types.Kind{
	types.KindGreater:        types.KindLess,
	types.KindGreaterOrEqual: types.KindLessOrEqual,
	types.KindLess:           types.KindGreater,
	types.KindLessOrEqual:    types.KindGreaterOrEqual,
}

// boolish reports whether n may produce a boolean: it is typed bool, or its
// type is unknown.
func boolish(n types.Node) bool {
	switch analysis.InferType(n) {
	case types.TypeBool, types.TypeObject:
		return true
	}
	return false
}

func simplifyComparison(n *types.Binary) (types.Node, error) {
	left, err := simplify(n.Left())
	if err != nil {
		return nil, err
	}
	right, err := simplify(n.Right())
	if err != nil {
		return nil, err
	}
	kind := n.Kind()
	if kind == types.KindIs {
		kind = types.KindEquals
	}

	if isLiteral(left) && isLiteral(right) {
		if c, ok := evaluateConstant(types.NewBinary(kind, left, right)); ok {
			return c, nil
		}
	}

	if kind == types.KindEquals {
		// bool == true ==> bool, bool == false ==> !bool
		if b, ok := types.IsBoolConstant(right); ok && analysis.InferType(left) == types.TypeBool {
			if b {
				return left, nil
			}
			return simplifyNot(types.Not(left), left)
		}
		if b, ok := types.IsBoolConstant(left); ok && analysis.InferType(right) == types.TypeBool {
			if b {
				return right, nil
			}
			return simplifyNot(types.Not(right), right)
		}
		if sameValue(left, right) {
			return types.True, nil
		}
	}

	return migrate(n, kind, left, right)
}

// migrate moves constants trapped beside a variable on the left of a
// comparison to the right by applying the inverse operation. Odd powers and
// odd repeated products compared for (in)equality are replaced by their real
// root, which keeps the rewrite exact.
func migrate(n *types.Binary, kind types.Kind, left, right types.Node) (types.Node, error) {
	var err error
	for step := 0; ; step++ {
		if step > MaxMigrationSteps {
			return nil, types.NewError(types.ErrSimplifierRunaway, "constant migration did not converge").WithNode(n)
		}
		changed := false

		if add, ok := left.(*types.Nary); ok && add.Kind() == types.KindAdd {
			consts, rest := splitConstants(add.Children())
			if len(consts) > 0 && len(rest) > 0 {
				for _, k := range consts {
					right = types.Subtract(right, k)
				}
				if right, err = simplify(right); err != nil {
					return nil, err
				}
				left = types.AddOf(rest)
				changed = true
			}
		}

		if mul, ok := left.(*types.Nary); ok && mul.Kind() == types.KindMultiply {
			consts, rest := splitConstants(mul.Children())
			product := 1.0
			for _, k := range consts {
				f, _ := types.IsNumber(k)
				product *= f
			}
			if len(consts) > 0 && len(rest) > 0 && product != 0 && !math.IsNaN(product) {
				for _, k := range consts {
					right = types.Divide(right, k)
				}
				if right, err = simplify(right); err != nil {
					return nil, err
				}
				left = types.MultiplyOf(rest)
				if product < 0 {
					if m, ok := mirrored[kind]; ok {
						kind = m
					}
				}
				changed = true
			}
		}

		if c, ok := types.IsFiniteNumber(right); ok && (kind == types.KindEquals || kind == types.KindNotEquals) {
			if base, k, ok := oddPower(left); ok {
				left = base
				right = types.NewNumber(realRoot(c, k), types.WithUnit(right.Unit()))
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	if left == n.Left() && right == n.Right() && kind == n.Kind() {
		return n, nil
	}
	return types.NewBinary(kind, left, right, types.WithUnit(n.Unit()), types.WithType(n.DeclaredType())), nil
}

func splitConstants(children []types.Node) (consts, rest []types.Node) {
	for _, c := range children {
		if _, ok := types.IsNumber(c); ok {
			consts = append(consts, c)
		} else {
			rest = append(rest, c)
		}
	}
	return consts, rest
}

// oddPower recognizes x^k and x*x*...*x with an odd positive integer k.
func oddPower(n types.Node) (types.Node, float64, bool) {
	switch n := n.(type) {
	case *types.Binary:
		if n.Kind() != types.KindPower {
			return nil, 0, false
		}
		k, ok := types.IsFiniteNumber(n.Right())
		if !ok || k < 1 || k != math.Trunc(k) || math.Mod(k, 2) == 0 {
			return nil, 0, false
		}
		return n.Left(), k, true
	case *types.Nary:
		children := n.Children()
		if n.Kind() != types.KindMultiply || len(children) < 2 || len(children)%2 == 0 {
			return nil, 0, false
		}
		for _, c := range children[1:] {
			if !sameValue(children[0], c) {
				return nil, 0, false
			}
		}
		return children[0], float64(len(children)), true
	}
	return nil, 0, false
}

func realRoot(c, k float64) float64 {
	if k == 1 {
		return c
	}
	if k == 3 {
		return math.Cbrt(c)
	}
	return math.Copysign(math.Pow(math.Abs(c), 1/k), c)
}

func simplifyNot(n *types.Unary, child types.Node) (types.Node, error) {
	switch c := child.(type) {
	case *types.Unary:
		if c.Kind() == types.KindNot && boolish(c.Child()) {
			return c.Child(), nil
		}
	case *types.Constant:
		if b, ok := types.IsBoolConstant(c); ok {
			return types.NewBool(!b), nil
		}
	case *types.Binary:
		if k, ok := complements[c.Kind()]; ok {
			return simplifyComparison(types.NewBinary(k, c.Left(), c.Right()))
		}
	}
	return rebuildUnary(n, child), nil
}

// simplifyLogic folds and/or: boolean constants collapse into the operator's
// seed, same-kind children are pulled up and contradictory pairs decide the
// whole node.
func simplifyLogic(n *types.Nary) (types.Node, error) {
	isAnd := n.Kind() == types.KindAnd
	acc := isAnd

	var rest []types.Node
	for _, c := range n.Children() {
		sc, err := simplify(c)
		if err != nil {
			return nil, err
		}
		if b, ok := types.IsBoolConstant(sc); ok {
			if isAnd {
				acc = acc && b
			} else {
				acc = acc || b
			}
			continue
		}
		if sc.Kind() == n.Kind() {
			rest = append(rest, sc.(*types.Nary).Children()...)
			continue
		}
		rest = append(rest, sc)
	}

	// A false in an and, or a true in an or, wins.
	if acc != isAnd || len(rest) == 0 {
		return types.NewBool(acc), nil
	}
	if exclusive(rest) {
		return types.NewBool(!isAnd), nil
	}
	if len(rest) == 1 && boolish(rest[0]) {
		return rest[0], nil
	}
	return types.NewNary(n.Kind(), rest, types.WithUnit(n.Unit()), types.WithType(n.DeclaredType())), nil
}

// exclusive reports whether two children can never hold together: P and
// !P, or comparisons of the same operands with complementary operators.
func exclusive(children []types.Node) bool {
	for i, a := range children {
		for j, b := range children {
			if i == j || types.Equal(a, b) {
				continue
			}
			if not, ok := a.(*types.Unary); ok && not.Kind() == types.KindNot && types.Equal(not.Child(), b) {
				return true
			}
			ab, ok1 := a.(*types.Binary)
			bb, ok2 := b.(*types.Binary)
			if !ok1 || !ok2 || !types.Equal(ab.Left(), bb.Left()) || !types.Equal(ab.Right(), bb.Right()) {
				continue
			}
			if k, ok := complements[ab.Kind()]; ok && k == bb.Kind() {
				return true
			}
		}
	}
	return false
}
