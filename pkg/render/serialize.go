// Package render turns goexpr trees into text: source syntax, English
// descriptions and SQL WHERE clauses.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Operator precedence, lowest first.
const (
	precOr         = 1
	precAnd        = 2
	precComparison = 4
	precAdditive   = 5
	precMultiply   = 6
	precUnary      = 7
	precPower      = 8
	precAtomic     = 10
)

var binaryOps = map[types.Kind]string{
	types.KindSubtract:       " - ",
	types.KindDivide:         " / ",
	types.KindPower:          " ^ ",
	types.KindIs:             " is ",
	types.KindEquals:         " == ",
	types.KindNotEquals:      " != ",
	types.KindGreater:        " > ",
	types.KindGreaterOrEqual: " >= ",
	types.KindLess:           " < ",
	types.KindLessOrEqual:    " <= ",
	types.KindMatches:        " matches ",
}

var naryOps = map[types.Kind]string{
	types.KindAdd:      " + ",
	types.KindMultiply: " * ",
	types.KindAnd:      " & ",
	types.KindOr:       " | ",
}

// Serialize renders n in source syntax. Cached source text is used verbatim.
func Serialize(n types.Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

// Precedence returns the binding strength of n's outermost operator. An
// identity node binds like its child, so a parent that binds tighter wraps
// it in parentheses.
func Precedence(n types.Node) int {
	if u, ok := n.(*types.Unary); ok && u.Kind() == types.KindIdentity {
		return Precedence(u.Child())
	}
	switch n.Kind() {
	case types.KindOr:
		return precOr
	case types.KindAnd:
		return precAnd
	case types.KindAdd, types.KindSubtract:
		return precAdditive
	case types.KindMultiply, types.KindDivide:
		return precMultiply
	case types.KindNot, types.KindUnaryMinus:
		return precUnary
	case types.KindPower:
		return precPower
	case types.KindMatches:
		return precComparison
	}
	if n.Kind().IsComparison() {
		return precComparison
	}
	if n.Kind() == types.KindNumber {
		// A negative literal reads like a unary minus.
		if f, _ := types.IsNumber(n); f < 0 {
			return precUnary
		}
	}
	return precAtomic
}

func isCommutative(k types.Kind) bool {
	switch k {
	case types.KindAdd, types.KindMultiply, types.KindAnd, types.KindOr:
		return true
	}
	return false
}

// needsParens reports whether child binds looser than parent, or as tightly
// under a non-commutative parent.
func needsParens(parent, child types.Node) bool {
	pp, cp := Precedence(parent), Precedence(child)
	return cp < pp || (cp == pp && cp != precAtomic && !isCommutative(parent.Kind()))
}

func writeOperand(sb *strings.Builder, parent, child types.Node) {
	if needsParens(parent, child) {
		sb.WriteByte('(')
		write(sb, child)
		sb.WriteByte(')')
		return
	}
	write(sb, child)
}

func writeCall(sb *strings.Builder, name string, args ...types.Node) {
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		write(sb, a)
	}
	sb.WriteByte(')')
}

func write(sb *strings.Builder, n types.Node) {
	if n.Text() != "" {
		sb.WriteString(n.Text())
		return
	}

	switch n := n.(type) {
	case *types.Constant:
		writeConstant(sb, n)
	case *types.Color:
		sb.WriteString(n.Hex())
	case *types.Failed:
		sb.WriteString("FAILED(")
		sb.WriteString(strconv.Quote(n.Message()))
		sb.WriteByte(')')
	case *types.Variable:
		sb.WriteString(Identifier(n.Name()))
	case *types.Property:
		writeOperand(sb, n, n.Parent())
		sb.WriteByte('.')
		sb.WriteString(Identifier(n.Name()))
	case *types.Parameter:
		sb.WriteByte('@')
		sb.WriteString(n.Name())
	case *types.Binary:
		writeOperand(sb, n, n.Left())
		sb.WriteString(binaryOps[n.Kind()])
		writeOperand(sb, n, n.Right())
	case *types.Nary:
		for i, c := range n.Children() {
			if i > 0 {
				sb.WriteString(naryOps[n.Kind()])
			}
			writeOperand(sb, n, c)
		}
	case *types.Unary:
		switch n.Kind() {
		case types.KindNot:
			sb.WriteByte('!')
			writeOperand(sb, n, n.Child())
		case types.KindUnaryMinus:
			sb.WriteByte('-')
			writeOperand(sb, n, n.Child())
		case types.KindToLocalTime:
			writeCall(sb, "TOLOCALTIME", n.Child())
		default:
			write(sb, n.Child())
		}
	case *types.Ternary:
		if n.Falsehood() == nil {
			writeCall(sb, "IF", n.Conditional(), n.Truth())
		} else {
			writeCall(sb, "IF", n.Conditional(), n.Truth(), n.Falsehood())
		}
	case *types.Aggregate:
		writeCall(sb, strings.ToUpper(string(n.Kind())), n.Child())
	case *types.Temporal:
		args := []types.Node{n.Child()}
		for _, c := range []types.Node{n.TimePeriod(), n.TimeFrom(), n.UnitOfMeasure()} {
			if c != nil {
				args = append(args, c)
			}
		}
		writeCall(sb, n.Function(), args...)
	case *types.List:
		writeList(sb, n)
	case *types.Each:
		sb.WriteString("EACH(")
		write(sb, n.Argument())
		sb.WriteString(", ")
		sb.WriteString(Identifier(n.Variable()))
		sb.WriteString(", ")
		write(sb, n.Body())
		sb.WriteByte(')')
	case *types.Wrapped:
		if n.Name() != "" {
			sb.WriteString(Identifier(n.Name()))
		} else {
			fmt.Fprintf(sb, "[%v]", n.Value())
		}
	case *types.Timer:
		if n.Child() == nil {
			sb.WriteString("TIMER()")
		} else {
			writeCall(sb, "TIMER", n.Child())
		}
	case *types.Call:
		writeCall(sb, Identifier(n.Name()), n.Children()...)
	}
}

func writeConstant(sb *strings.Builder, n *types.Constant) {
	v := n.Value()
	switch n.Kind() {
	case types.KindNumber:
		sb.WriteString(types.FormatNumber(v.Float()))
		sb.WriteString(n.Unit())
	case types.KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool()))
	case types.KindString:
		sb.WriteString(strconv.Quote(v.Str()))
	case types.KindDateTime:
		sb.WriteString(`DATETIME("`)
		sb.WriteString(v.Time().Format(time.RFC3339))
		sb.WriteString(`")`)
	default:
		sb.WriteString("null")
	}
}

func writeList(sb *strings.Builder, n *types.List) {
	switch n.Kind() {
	case types.KindTuple:
		writeCall(sb, "TUPLE", n.Children()...)
	case types.KindSetUnion:
		writeCall(sb, "UNION", n.Children()...)
	case types.KindIntersection:
		writeCall(sb, "INTERSECTION", n.Children()...)
	default:
		sb.WriteByte('{')
		for i, c := range n.Children() {
			if i > 0 {
				sb.WriteString(", ")
			}
			write(sb, c)
		}
		sb.WriteByte('}')
	}
}

// Identifier returns name as written in source: bare when it is a plain
// identifier, otherwise bracketed.
func Identifier(name string) string {
	if isPlainIdentifier(name) {
		return name
	}
	return "[" + name + "]"
}

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
