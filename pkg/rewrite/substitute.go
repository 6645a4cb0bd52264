package rewrite

import (
	"github.com/sandrolain/goexpr/pkg/types"
)

// Substitute replaces every free occurrence of the variable or parameter
// name with replacement. Occurrences bound by an enclosing Each of the same
// name are left alone, and so is the unit of measure of a temporal node.
func Substitute(n types.Node, name string, replacement types.Node) types.Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *types.Variable:
		if n.Name() == name {
			return types.Inherit(n, replacement)
		}
		return n
	case *types.Parameter:
		if n.Name() == name {
			return types.Inherit(n, replacement)
		}
		return n
	case *types.Each:
		arg := Substitute(n.Argument(), name, replacement)
		body := n.Body()
		if n.Variable() != name {
			body = Substitute(body, name, replacement)
		}
		return rebuildEach(n, arg, body)
	case *types.Temporal:
		child := Substitute(n.Child(), name, replacement)
		period := Substitute(n.TimePeriod(), name, replacement)
		from := Substitute(n.TimeFrom(), name, replacement)
		if child == n.Child() && period == n.TimePeriod() && from == n.TimeFrom() {
			return n
		}
		return types.NewTemporal(n.Function(), child,
			types.Period(period),
			types.From(from),
			types.UnitOfMeasure(n.UnitOfMeasure()),
			types.NodeOptions(types.WithUnit(n.Unit()), types.WithType(n.DeclaredType())),
		)
	}
	out, _ := types.MapChildren(n, func(c types.Node) (types.Node, error) {
		return Substitute(c, name, replacement), nil
	})
	return out
}

// Bind substitutes a host value for name. Scalars become constants, other
// values are wrapped under the variable's name.
func Bind(n types.Node, name string, value any) types.Node {
	v := types.FromAny(value)
	if v.IsObject() {
		return Substitute(n, name, types.NewWrapped(value, name))
	}
	return Substitute(n, name, types.NewConstant(v))
}

func rebuildEach(n *types.Each, arg, body types.Node) types.Node {
	if arg == n.Argument() && body == n.Body() {
		return n
	}
	return types.NewEach(arg, n.Variable(), body, types.WithUnit(n.Unit()), types.WithType(n.DeclaredType()))
}
