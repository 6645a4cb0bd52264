package types

import "math"

// Equal reports whether two trees are structurally equal: same kinds, same
// payloads, same unit tags and equal children. Cached text and declared
// types are ignored.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() || a.Unit() != b.Unit() {
		return false
	}
	switch x := a.(type) {
	case *Constant:
		y := b.(*Constant)
		if x.value.IsNaN() && y.value.IsNaN() {
			return true
		}
		return x.value.Equal(y.value)
	case *Color:
		y := b.(*Color)
		return x.r == y.r && x.g == y.g && x.b == y.b
	case *Failed:
		return x.message == b.(*Failed).message
	case *Variable:
		return x.name == b.(*Variable).name
	case *Parameter:
		return x.name == b.(*Parameter).name
	case *Property:
		y := b.(*Property)
		return x.name == y.name && Equal(x.parent, y.parent)
	case *Binary:
		y := b.(*Binary)
		return Equal(x.left, y.left) && Equal(x.right, y.right)
	case *Nary:
		return equalAll(x.children, b.(*Nary).children)
	case *Unary:
		return Equal(x.child, b.(*Unary).child)
	case *Ternary:
		y := b.(*Ternary)
		return Equal(x.cond, y.cond) && Equal(x.truth, y.truth) && Equal(x.falsehood, y.falsehood)
	case *Aggregate:
		return Equal(x.child, b.(*Aggregate).child)
	case *Temporal:
		y := b.(*Temporal)
		return x.function == y.function && Equal(x.child, y.child) && Equal(x.period, y.period) &&
			Equal(x.from, y.from) && Equal(x.unitOfMeasure, y.unitOfMeasure)
	case *List:
		return equalAll(x.children, b.(*List).children)
	case *Each:
		y := b.(*Each)
		return x.variable == y.variable && Equal(x.arg, y.arg) && Equal(x.body, y.body)
	case *Wrapped:
		y := b.(*Wrapped)
		return x.name == y.name && sameHostValue(x.value, y.value)
	case *Timer:
		return Equal(x.child, b.(*Timer).child)
	case *Call:
		y := b.(*Call)
		return x.name == y.name && equalAll(x.children, y.children)
	}
	return false
}

func equalAll(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameHostValue(a, b any) (eq bool) {
	defer func() {
		// Uncomparable host values (maps, slices) are never equal.
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// IsNumber reports whether n is a number constant, returning its value.
func IsNumber(n Node) (float64, bool) {
	c, ok := n.(*Constant)
	if !ok || c.kind != KindNumber {
		return 0, false
	}
	return c.value.Float(), true
}

// IsFiniteNumber is IsNumber restricted to finite values.
func IsFiniteNumber(n Node) (float64, bool) {
	f, ok := IsNumber(n)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsBoolConstant reports whether n is a boolean constant, returning its value.
func IsBoolConstant(n Node) (bool, bool) {
	c, ok := n.(*Constant)
	if !ok || c.kind != KindBool {
		return false, false
	}
	return c.value.Bool(), true
}

// IsConstant reports whether n is any literal constant (including colors).
func IsConstant(n Node) bool {
	switch n.(type) {
	case *Constant, *Color:
		return true
	}
	return false
}

// VariableName returns the name if n is a bare variable reference.
func VariableName(n Node) (string, bool) {
	v, ok := n.(*Variable)
	if !ok {
		return "", false
	}
	return v.name, true
}
