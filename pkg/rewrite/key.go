package rewrite

import (
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
)

// treeKey encodes the structure of n, including the declared type and unit
// of every node. Cached source text is ignored. Trees carrying host values
// (wrapped nodes or object constants) have no key: their values cannot be
// told apart from the outside, so ok is false.
func treeKey(n types.Node) (key string, ok bool) {
	var sb strings.Builder
	if !writeKey(&sb, n) {
		return "", false
	}
	return sb.String(), true
}

func writeKey(sb *strings.Builder, n types.Node) bool {
	if n == nil {
		sb.WriteByte('_')
		return true
	}
	sb.WriteString(string(n.Kind()))
	sb.WriteByte('{')
	sb.WriteString(n.DeclaredType().String())
	sb.WriteByte(',')
	sb.WriteString(strconv.Quote(n.Unit()))

	ok := true
	children := func(nodes ...types.Node) {
		for _, c := range nodes {
			if !ok {
				return
			}
			sb.WriteByte(' ')
			ok = writeKey(sb, c)
		}
	}

	switch n := n.(type) {
	case *types.Constant:
		ok = writeValueKey(sb, n.Value())
	case *types.Color:
		sb.WriteByte(' ')
		sb.WriteString(n.Hex())
		sb.WriteString(strconv.Quote(n.Name()))
	case *types.Failed:
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Message()))
	case *types.Variable:
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Name()))
	case *types.Parameter:
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Name()))
	case *types.Property:
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Name()))
		children(n.Parent())
	case *types.Binary:
		children(n.Left(), n.Right())
	case *types.Nary:
		children(n.Children()...)
	case *types.Unary:
		children(n.Child())
	case *types.Ternary:
		children(n.Conditional(), n.Truth(), n.Falsehood())
	case *types.Aggregate:
		children(n.Child())
	case *types.Temporal:
		sb.WriteByte(' ')
		sb.WriteString(n.Function())
		children(n.Child(), n.TimePeriod(), n.TimeFrom(), n.UnitOfMeasure())
	case *types.List:
		children(n.Children()...)
	case *types.Each:
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Variable()))
		children(n.Argument(), n.Body())
	case *types.Timer:
		children(n.Child())
	case *types.Call:
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(n.Name()))
		children(n.Children()...)
	default:
		// Wrapped host values.
		return false
	}
	sb.WriteByte('}')
	return ok
}

func writeValueKey(sb *strings.Builder, v types.Value) bool {
	sb.WriteByte(' ')
	sb.WriteString(v.Kind().String())
	sb.WriteByte(':')
	switch v.Kind() {
	case types.ValueDouble:
		sb.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case types.ValueBool:
		sb.WriteString(strconv.FormatBool(v.Bool()))
	case types.ValueString:
		sb.WriteString(strconv.Quote(v.Str()))
	case types.ValueDateTime:
		sb.WriteString(v.Time().Format(time.RFC3339Nano))
	case types.ValueObject:
		return false
	}
	return true
}
