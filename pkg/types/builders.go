package types

// Shorthand constructors used by the rewriting passes and by hosts that
// assemble trees in code.

func Num(f float64) *Constant  { return NewNumber(f) }
func Str(s string) *Constant   { return NewString(s) }
func Var(name string) *Variable { return NewVariable(name) }

func Add(children ...Node) *Nary      { return NewNary(KindAdd, children) }
func Multiply(children ...Node) *Nary { return NewNary(KindMultiply, children) }
func And(children ...Node) *Nary      { return NewNary(KindAnd, children) }
func Or(children ...Node) *Nary       { return NewNary(KindOr, children) }

func Subtract(l, r Node) *Binary       { return NewBinary(KindSubtract, l, r) }
func Divide(l, r Node) *Binary         { return NewBinary(KindDivide, l, r) }
func Power(l, r Node) *Binary          { return NewBinary(KindPower, l, r) }
func Equals(l, r Node) *Binary         { return NewBinary(KindEquals, l, r) }
func NotEquals(l, r Node) *Binary      { return NewBinary(KindNotEquals, l, r) }
func Greater(l, r Node) *Binary        { return NewBinary(KindGreater, l, r) }
func GreaterOrEqual(l, r Node) *Binary { return NewBinary(KindGreaterOrEqual, l, r) }
func Less(l, r Node) *Binary           { return NewBinary(KindLess, l, r) }
func LessOrEqual(l, r Node) *Binary    { return NewBinary(KindLessOrEqual, l, r) }

func Not(child Node) *Unary      { return NewUnary(KindNot, child) }
func Negate(child Node) *Unary   { return NewUnary(KindUnaryMinus, child) }
func Identity(child Node) *Unary { return NewUnary(KindIdentity, child) }

func If(cond, truth, falsehood Node) *Ternary { return NewTernary(cond, truth, falsehood) }

func Array(children ...Node) *List           { return NewList(KindArray, children) }
func Fn(name string, args ...Node) *Call      { return NewCall(name, args) }

// AddOf builds an add over children, collapsing the degenerate cases: no
// children is the constant 0 and a single child is returned as is.
func AddOf(children []Node) Node {
	switch len(children) {
	case 0:
		return NewNumber(0)
	case 1:
		return children[0]
	}
	return NewNary(KindAdd, children)
}

// MultiplyOf is AddOf for multiplication, with 1 as the empty product.
func MultiplyOf(children []Node) Node {
	switch len(children) {
	case 0:
		return NewNumber(1)
	case 1:
		return children[0]
	}
	return NewNary(KindMultiply, children)
}

// NaryOf builds an n-ary node of kind, or returns the single child.
func NaryOf(kind Kind, children []Node) Node {
	switch kind {
	case KindAdd:
		return AddOf(children)
	case KindMultiply:
		return MultiplyOf(children)
	case KindAnd:
		if len(children) == 0 {
			return True
		}
	case KindOr:
		if len(children) == 0 {
			return False
		}
	}
	if len(children) == 1 {
		return children[0]
	}
	return NewNary(kind, children)
}
