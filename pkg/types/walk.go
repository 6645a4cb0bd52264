package types

import "fmt"

// Children returns the direct children of n in source order. Optional
// operands that are absent are omitted.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Constant, *Color, *Failed, *Variable, *Parameter, *Wrapped:
		return nil
	case *Property:
		return []Node{n.parent}
	case *Binary:
		return []Node{n.left, n.right}
	case *Nary:
		return n.children
	case *Unary:
		return []Node{n.child}
	case *Ternary:
		if n.falsehood == nil {
			return []Node{n.cond, n.truth}
		}
		return []Node{n.cond, n.truth, n.falsehood}
	case *Aggregate:
		return []Node{n.child}
	case *Temporal:
		out := []Node{n.child}
		for _, c := range []Node{n.period, n.from, n.unitOfMeasure} {
			if c != nil {
				out = append(out, c)
			}
		}
		return out
	case *List:
		return n.children
	case *Each:
		return []Node{n.arg, n.body}
	case *Timer:
		if n.child == nil {
			return nil
		}
		return []Node{n.child}
	case *Call:
		return n.children
	}
	panic(fmt.Sprintf("types: unknown node %T", n))
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// MapChildren rebuilds n with every child replaced by f(child). It is the
// pass-through rewrite every transformer falls back to for node kinds it
// does not change. The unit tag and declared type are always kept; cached
// text is kept only when no child changed.
func MapChildren(n Node, f func(Node) (Node, error)) (Node, error) {
	var firstErr error
	changed := false
	m := func(c Node) Node {
		if c == nil || firstErr != nil {
			return c
		}
		r, err := f(c)
		if err != nil {
			firstErr = err
			return c
		}
		if r != c {
			changed = true
		}
		return r
	}
	ms := func(cs []Node) []Node {
		out := make([]Node, len(cs))
		for i, c := range cs {
			out[i] = m(c)
		}
		return out
	}

	var out Node
	switch n := n.(type) {
	case *Constant, *Color, *Failed, *Variable, *Parameter, *Wrapped:
		return n, nil
	case *Property:
		c := *n
		c.parent = m(n.parent)
		out = &c
	case *Binary:
		c := *n
		c.left, c.right = m(n.left), m(n.right)
		out = &c
	case *Nary:
		c := *n
		c.children = ms(n.children)
		out = &c
	case *Unary:
		c := *n
		c.child = m(n.child)
		out = &c
	case *Ternary:
		c := *n
		c.cond, c.truth, c.falsehood = m(n.cond), m(n.truth), m(n.falsehood)
		out = &c
	case *Aggregate:
		c := *n
		c.child = m(n.child)
		out = &c
	case *Temporal:
		c := *n
		c.child, c.period, c.from, c.unitOfMeasure = m(n.child), m(n.period), m(n.from), m(n.unitOfMeasure)
		out = &c
	case *List:
		c := *n
		c.children = ms(n.children)
		out = &c
	case *Each:
		c := *n
		c.arg, c.body = m(n.arg), m(n.body)
		out = &c
	case *Timer:
		c := *n
		c.child = m(n.child)
		out = &c
	case *Call:
		c := *n
		c.children = ms(n.children)
		out = &c
	default:
		panic(fmt.Sprintf("types: unknown node %T", n))
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if !changed {
		return n, nil
	}
	return withAttrs(out, attrs{unit: n.Unit(), typ: n.DeclaredType()}), nil
}

// SetUnit returns a copy of n carrying the given unit tag.
func SetUnit(n Node, unit string) Node {
	if n.Unit() == unit {
		return n
	}
	a := n.meta()
	a.unit = unit
	return withAttrs(n, a)
}

// SetText returns a copy of n carrying the given cached text.
func SetText(n Node, text string) Node {
	if n.Text() == text {
		return n
	}
	a := n.meta()
	a.text = text
	return withAttrs(n, a)
}

// Inherit copies the unit tag of orig onto rewritten when rewritten has none.
func Inherit(orig, rewritten Node) Node {
	if rewritten.Unit() != "" || orig.Unit() == "" {
		return rewritten
	}
	return SetUnit(rewritten, orig.Unit())
}

func withAttrs(n Node, a attrs) Node {
	switch n := n.(type) {
	case *Constant:
		c := *n
		c.attrs = a
		return &c
	case *Color:
		c := *n
		c.attrs = a
		return &c
	case *Failed:
		c := *n
		c.attrs = a
		return &c
	case *Variable:
		c := *n
		c.attrs = a
		return &c
	case *Property:
		c := *n
		c.attrs = a
		return &c
	case *Parameter:
		c := *n
		c.attrs = a
		return &c
	case *Binary:
		c := *n
		c.attrs = a
		return &c
	case *Nary:
		c := *n
		c.attrs = a
		return &c
	case *Unary:
		c := *n
		c.attrs = a
		return &c
	case *Ternary:
		c := *n
		c.attrs = a
		return &c
	case *Aggregate:
		c := *n
		c.attrs = a
		return &c
	case *Temporal:
		c := *n
		c.attrs = a
		return &c
	case *List:
		c := *n
		c.attrs = a
		return &c
	case *Each:
		c := *n
		c.attrs = a
		return &c
	case *Wrapped:
		c := *n
		c.attrs = a
		return &c
	case *Timer:
		c := *n
		c.attrs = a
		return &c
	case *Call:
		c := *n
		c.attrs = a
		return &c
	}
	panic(fmt.Sprintf("types: unknown node %T", n))
}
