package render

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
)

// ErrUnsupportedSQL is returned for nodes without a SQL equivalent.
var ErrUnsupportedSQL = errors.New("render: no SQL equivalent")

// Query is a WHERE clause with its named parameters. Constants never appear
// inline: they become @p1, @p2, ... so the clause is safe to execute.
type Query struct {
	Where string
	Args  []sql.NamedArg
}

// Params returns the arguments as a slice ready for database/sql.
func (q Query) Params() []any {
	out := make([]any, len(q.Args))
	for i, a := range q.Args {
		out[i] = a
	}
	return out
}

// sqlFunctions maps supported function names to their arity.
var sqlFunctions = map[string]int{
	"ABS":     1,
	"CEILING": 1,
	"FLOOR":   1,
	"ROUND":   1,
	"SQRT":    1,
	"UPPER":   1,
	"LOWER":   1,
	"TRIM":    1,
	"LENGTH":  1,
	"POWER":   2,
}

var sqlComparisons = map[types.Kind]string{
	types.KindIs:             "=",
	types.KindEquals:         "=",
	types.KindNotEquals:      "<>",
	types.KindGreater:        ">",
	types.KindGreaterOrEqual: ">=",
	types.KindLess:           "<",
	types.KindLessOrEqual:    "<=",
}

// SQL renders n as a WHERE clause. Identifiers are bracket quoted, boolean
// variables are assumed to be stored as 0/1.
func SQL(n types.Node) (Query, error) {
	r := &sqlRenderer{}
	where, err := r.render(n)
	if err != nil {
		return Query{}, err
	}
	return Query{Where: where, Args: r.args}, nil
}

type sqlRenderer struct {
	args []sql.NamedArg
}

func (r *sqlRenderer) param(v any) string {
	name := "p" + strconv.Itoa(len(r.args)+1)
	r.args = append(r.args, sql.Named(name, v))
	return "@" + name
}

func unsupported(n types.Node) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedSQL, n.Kind())
}

func (r *sqlRenderer) join(nodes []types.Node, sep string) (string, error) {
	parts := make([]string, len(nodes))
	for i, c := range nodes {
		s, err := r.render(c)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, sep), nil
}

func isNull(n types.Node) bool {
	c, ok := n.(*types.Constant)
	return ok && c.Kind() == types.KindNull
}

func (r *sqlRenderer) render(n types.Node) (string, error) {
	switch n := n.(type) {
	case *types.Constant:
		v := n.Value()
		switch n.Kind() {
		case types.KindNumber:
			return r.param(v.Float()), nil
		case types.KindString:
			return r.param(v.Str()), nil
		case types.KindDateTime:
			return r.param(v.Time()), nil
		case types.KindBool:
			// No boolean literals in SQL.
			if v.Bool() {
				return "1=1", nil
			}
			return "1=0", nil
		}
		return "NULL", nil
	case *types.Color:
		return "1=0", nil
	case *types.Variable:
		if n.DeclaredType() == types.TypeBool {
			return "[" + n.Name() + "] = 1", nil
		}
		return "[" + n.Name() + "]", nil
	case *types.Property:
		parent, err := r.render(n.Parent())
		if err != nil {
			return "", err
		}
		return parent + ".[" + n.Name() + "]", nil
	case *types.Parameter:
		r.args = append(r.args, sql.Named(n.Name(), nil))
		return "@" + n.Name(), nil
	case *types.Binary:
		return r.binary(n)
	case *types.Nary:
		op := map[types.Kind]string{
			types.KindAdd:      " + ",
			types.KindMultiply: " * ",
			types.KindAnd:      " AND ",
			types.KindOr:       " OR ",
		}[n.Kind()]
		s, err := r.join(n.Children(), op)
		if err != nil {
			return "", err
		}
		return "(" + s + ")", nil
	case *types.Unary:
		child, err := r.render(n.Child())
		if err != nil {
			return "", err
		}
		switch n.Kind() {
		case types.KindNot:
			return "(NOT " + child + ")", nil
		case types.KindUnaryMinus:
			return "-" + child, nil
		case types.KindIdentity:
			return child, nil
		}
		return "", unsupported(n)
	case *types.Ternary:
		return r.ternary(n)
	case *types.Aggregate:
		child, err := r.render(n.Child())
		if err != nil {
			return "", err
		}
		return strings.ToUpper(string(n.Kind())) + "(" + child + ")", nil
	case *types.List:
		switch n.Kind() {
		case types.KindArray, types.KindTuple:
			s, err := r.join(n.Children(), ", ")
			if err != nil {
				return "", err
			}
			return "(" + s + ")", nil
		}
		return "", unsupported(n)
	case *types.Call:
		return r.call(n)
	}
	// Failed, temporal, each, wrapped and timer nodes.
	return "", unsupported(n)
}

func (r *sqlRenderer) binary(n *types.Binary) (string, error) {
	switch n.Kind() {
	case types.KindMatches:
		return "", unsupported(n)
	case types.KindIs, types.KindEquals, types.KindNotEquals:
		if isNull(n.Right()) {
			left, err := r.render(n.Left())
			if err != nil {
				return "", err
			}
			if n.Kind() == types.KindNotEquals {
				return left + " IS NOT NULL", nil
			}
			return left + " IS NULL", nil
		}
	}

	left, err := r.render(n.Left())
	if err != nil {
		return "", err
	}
	right, err := r.render(n.Right())
	if err != nil {
		return "", err
	}

	switch n.Kind() {
	case types.KindSubtract:
		return "(" + left + " - " + right + ")", nil
	case types.KindDivide:
		return "(" + left + " / " + right + ")", nil
	case types.KindPower:
		return "POWER(" + left + ", " + right + ")", nil
	}
	return "(" + left + " " + sqlComparisons[n.Kind()] + " " + right + ")", nil
}

func (r *sqlRenderer) ternary(n *types.Ternary) (string, error) {
	cond, err := r.render(n.Conditional())
	if err != nil {
		return "", err
	}
	// Numeric branches stay inline so CASE results keep their type.
	branch := func(b types.Node) (string, error) {
		if f, ok := types.IsNumber(b); ok {
			return types.FormatNumber(f), nil
		}
		return r.render(b)
	}
	truth, err := branch(n.Truth())
	if err != nil {
		return "", err
	}
	if n.Falsehood() == nil || isNull(n.Falsehood()) {
		return "CASE WHEN " + cond + " THEN " + truth + " END", nil
	}
	falsehood, err := branch(n.Falsehood())
	if err != nil {
		return "", err
	}
	return "CASE WHEN " + cond + " THEN " + truth + " ELSE " + falsehood + " END", nil
}

func (r *sqlRenderer) call(n *types.Call) (string, error) {
	name := strings.ToUpper(n.Name())
	args := n.Children()

	// String tests with a literal pattern become LIKE.
	if len(args) == 2 {
		if pattern, ok := args[1].(*types.Constant); ok && pattern.Kind() == types.KindString {
			var like string
			switch name {
			case "STARTSWITH":
				like = pattern.Value().Str() + "%"
			case "ENDSWITH":
				like = "%" + pattern.Value().Str()
			case "CONTAINS":
				like = "%" + pattern.Value().Str() + "%"
			}
			if like != "" {
				left, err := r.render(args[0])
				if err != nil {
					return "", err
				}
				return left + " LIKE " + r.param(like), nil
			}
		}
	}

	switch name {
	case "TOUPPER", "TOUPPERINVARIANT":
		name = "UPPER"
	case "TOLOWER", "TOLOWERINVARIANT":
		name = "LOWER"
	case "POW":
		name = "POWER"
	}
	if arity, ok := sqlFunctions[name]; ok && arity == len(args) {
		s, err := r.join(args, ", ")
		if err != nil {
			return "", err
		}
		return name + "(" + s + ")", nil
	}
	return "", unsupported(n)
}
