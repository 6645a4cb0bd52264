package analysis

import (
	"github.com/sandrolain/goexpr/pkg/render"
	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

// InferUnit returns the unit tag of a tree's result. A unit set on a node
// wins over the derived one. Mismatched units give units.Error, which
// propagates to every enclosing node.
func InferUnit(n types.Node) string {
	return inferUnit(n, nil)
}

func inferUnit(n types.Node, memo *Memo) string {
	if memo != nil {
		if u, ok := memo.cachedUnit(n); ok {
			return u
		}
	}
	u := n.Unit()
	if u == units.None {
		u = computeUnit(n, memo)
	}
	if memo != nil {
		memo.storeUnit(n, u)
	}
	return u
}

func computeUnit(n types.Node, memo *Memo) string {
	infer := func(c types.Node) string { return inferUnit(c, memo) }

	switch n := n.(type) {
	case *types.Binary:
		left, right := infer(n.Left()), infer(n.Right())
		switch n.Kind() {
		case types.KindSubtract:
			return units.Sum(left, right)
		case types.KindDivide:
			return units.Quotient(left, right)
		case types.KindPower:
			if right == units.Error {
				return units.Error
			}
			return units.Power(left, render.Serialize(n.Right()))
		case types.KindIs, types.KindMatches:
			return propagate(units.Bool, left, right)
		}
		return units.Compare(left, right)

	case *types.Nary:
		us := make([]string, len(n.Children()))
		for i, c := range n.Children() {
			us[i] = infer(c)
		}
		switch n.Kind() {
		case types.KindAdd:
			acc := us[0]
			for _, u := range us[1:] {
				acc = units.Sum(acc, u)
			}
			return acc
		case types.KindMultiply:
			return units.Product(us...)
		}
		return propagate(units.Bool, us...)

	case *types.Unary:
		child := infer(n.Child())
		if n.Kind() == types.KindNot {
			return propagate(units.Bool, child)
		}
		return child

	case *types.Aggregate:
		child := infer(n.Child())
		switch n.Kind() {
		case types.KindCount:
			return propagate(units.None, child)
		case types.KindAny, types.KindAll:
			return propagate(units.Bool, child)
		}
		return child

	case *types.Temporal:
		child := infer(n.Child())
		switch n.Function() {
		case types.TemporalCount, types.TemporalCountLeading:
			return propagate(units.None, child)
		case types.TemporalAny, types.TemporalAll:
			return propagate(units.Bool, child)
		case types.TemporalDeltaTime:
			if u := n.UnitOfMeasureName(); u != "" {
				return u
			}
			return "s"
		}
		return child

	case *types.List:
		// Array elements must agree like addends.
		if n.Kind() != types.KindArray || len(n.Children()) == 0 {
			return units.None
		}
		acc := infer(n.Children()[0])
		for _, c := range n.Children()[1:] {
			acc = units.Sum(acc, infer(c))
		}
		return acc

	case *types.Each:
		return infer(n.Body())
	}
	return units.None
}

// propagate returns result unless an operand unit is units.Error.
func propagate(result string, operands ...string) string {
	for _, u := range operands {
		if u == units.Error {
			return units.Error
		}
	}
	return result
}
