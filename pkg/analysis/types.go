// Package analysis implements static passes over goexpr trees: type
// inference, unit inference and identifier scanners.
package analysis

import (
	"github.com/sandrolain/goexpr/pkg/types"
)

// InferType returns the static result type of a tree. Incompatible operands
// yield types.TypeUndefined; references without a declared type are
// types.TypeObject, which comparisons accept permissively.
func InferType(n types.Node) types.Type {
	return inferType(n, nil)
}

func inferType(n types.Node, memo *Memo) types.Type {
	if memo != nil {
		if t, ok := memo.cachedType(n); ok {
			return t
		}
	}
	t := computeType(n, memo)
	if memo != nil {
		memo.storeType(n, t)
	}
	return t
}

func computeType(n types.Node, memo *Memo) types.Type {
	infer := func(c types.Node) types.Type { return inferType(c, memo) }

	switch n := n.(type) {
	case *types.Constant:
		return n.DeclaredType().Or(constantType(n.Kind()))
	case *types.Color:
		return n.DeclaredType().Or(types.TypeObject)
	case *types.Failed:
		return types.TypeUndefined

	case *types.Variable, *types.Property, *types.Parameter, *types.Call,
		*types.Temporal, *types.Wrapped, *types.Timer:
		return n.DeclaredType().Or(types.TypeObject)

	case *types.Binary:
		left, right := infer(n.Left()), infer(n.Right())
		switch n.Kind() {
		case types.KindSubtract:
			return subtractType(left, right)
		case types.KindDivide, types.KindPower:
			return mathType(left, right)
		case types.KindMatches:
			if left == types.TypeUndefined {
				return types.TypeUndefined
			}
			switch n.Right().(type) {
			case *types.Color:
				return types.TypeBool
			}
			if _, ok := types.IsNumber(n.Right()); ok {
				return types.TypeBool
			}
			return types.TypeUndefined
		}
		return comparisonType(left, right)

	case *types.Nary:
		combine := mathType
		if n.Kind() == types.KindAnd || n.Kind() == types.KindOr {
			combine = booleanType
		}
		return foldTypes(n.Children(), combine, infer)

	case *types.Unary:
		child := infer(n.Child())
		switch n.Kind() {
		case types.KindNot:
			if child == types.TypeBool {
				return child
			}
			return types.TypeUndefined
		case types.KindToLocalTime:
			if child == types.TypeDateTime {
				return child
			}
			return types.TypeUndefined
		}
		return child

	case *types.Ternary:
		if infer(n.Conditional()) != types.TypeBool {
			return types.TypeUndefined
		}
		if b, ok := types.IsBoolConstant(n.Conditional()); ok && b {
			return infer(n.Truth())
		}
		truth := infer(n.Truth())
		if n.Falsehood() == nil {
			return truth
		}
		falsehood := infer(n.Falsehood())
		if truth == falsehood {
			return truth
		}
		return mathType(truth, falsehood)

	case *types.Aggregate:
		return aggregateType(n, infer)

	case *types.List:
		return types.TypeUndefined

	case *types.Each:
		return infer(n.Body())
	}
	return types.TypeUndefined
}

func constantType(k types.Kind) types.Type {
	switch k {
	case types.KindNumber:
		return types.TypeDouble
	case types.KindBool:
		return types.TypeBool
	case types.KindString:
		return types.TypeString
	case types.KindDateTime:
		return types.TypeDateTime
	}
	return types.TypeObject
}

func foldTypes(children []types.Node, combine func(a, b types.Type) types.Type, infer func(types.Node) types.Type) types.Type {
	if len(children) == 0 {
		return types.TypeUndefined
	}
	acc := infer(children[0])
	for _, c := range children[1:] {
		acc = combine(acc, infer(c))
	}
	return acc
}

// mathType combines arithmetic operand types: a string anywhere wins, then
// the wider of two numeric types. Unknown operands keep the result unknown.
func mathType(a, b types.Type) types.Type {
	switch {
	case a == types.TypeUndefined || b == types.TypeUndefined:
		return types.TypeUndefined
	case a == types.TypeString || b == types.TypeString:
		return types.TypeString
	case a.IsNumeric() && b.IsNumeric():
		return max(a, b)
	case a == types.TypeDateTime && b == types.TypeTimeSpan,
		a == types.TypeTimeSpan && b == types.TypeDateTime:
		return types.TypeDateTime
	case a == types.TypeTimeSpan && b == types.TypeTimeSpan:
		return types.TypeTimeSpan
	case a == types.TypeObject || b == types.TypeObject:
		return types.TypeObject
	}
	return types.TypeUndefined
}

func subtractType(a, b types.Type) types.Type {
	switch {
	case a == types.TypeDateTime && b == types.TypeDateTime:
		return types.TypeTimeSpan
	case a == types.TypeDateTime && b == types.TypeTimeSpan:
		return types.TypeDateTime
	case a == b && a != types.TypeString:
		return a
	}
	return mathType(a, b)
}

func booleanType(a, b types.Type) types.Type {
	if a == types.TypeBool && b == types.TypeBool {
		return types.TypeBool
	}
	return types.TypeUndefined
}

func comparisonType(a, b types.Type) types.Type {
	switch {
	case a == types.TypeUndefined || b == types.TypeUndefined:
		return types.TypeUndefined
	case a == b,
		a.IsNumeric() && b.IsNumeric(),
		a == types.TypeObject || b == types.TypeObject:
		return types.TypeBool
	}
	return types.TypeUndefined
}

func aggregateType(n *types.Aggregate, infer func(types.Node) types.Type) types.Type {
	var elems []types.Node
	isArray := false
	switch c := n.Child().(type) {
	case *types.List:
		if c.Kind() == types.KindArray {
			elems, isArray = c.Children(), true
		}
	case *types.Each:
		elems, isArray = []types.Node{c.Body()}, true
	}

	switch n.Kind() {
	case types.KindAverage:
		return types.TypeDouble
	case types.KindAny, types.KindAll:
		return types.TypeBool
	case types.KindCount:
		if isArray {
			return types.TypeInt
		}
		return types.TypeUndefined
	case types.KindFirst:
		if !isArray {
			return infer(n.Child())
		}
		if len(elems) == 0 {
			return types.TypeDouble
		}
		return infer(elems[0])
	}

	// Sum, Min, Max
	if !isArray {
		return types.TypeUndefined
	}
	return foldTypes(elems, mathType, infer)
}
