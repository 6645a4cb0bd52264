package render

import (
	"math"
	"strings"

	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

var describeBinary = map[types.Kind]string{
	types.KindSubtract:       " minus ",
	types.KindDivide:         " divided by ",
	types.KindPower:          " to the power of ",
	types.KindIs:             " is ",
	types.KindEquals:         " equals ",
	types.KindNotEquals:      " is not equal to ",
	types.KindGreater:        " is greater than ",
	types.KindGreaterOrEqual: " is greater than or equal to ",
	types.KindLess:           " is less than ",
	types.KindLessOrEqual:    " is less than or equal to ",
	types.KindMatches:        " matches ",
}

var describeNary = map[types.Kind]string{
	types.KindAdd:      " plus ",
	types.KindMultiply: " times ",
	types.KindAnd:      " and ",
	types.KindOr:       " or ",
}

var describeAggregate = map[types.Kind]string{
	types.KindSum:     "the sum of ",
	types.KindCount:   "the count of ",
	types.KindAverage: "the average of ",
	types.KindMin:     "the minimum of ",
	types.KindMax:     "the maximum of ",
	types.KindAny:     "any of ",
	types.KindAll:     "all of ",
	types.KindFirst:   "the first of ",
}

var describeTemporal = map[string]string{
	types.TemporalAverage:      "the average of ",
	types.TemporalMin:          "the minimum of ",
	types.TemporalMax:          "the maximum of ",
	types.TemporalSlope:        "the slope of ",
	types.TemporalStnd:         "the standard deviation of ",
	types.TemporalDelta:        "the change in ",
	types.TemporalDeltaTime:    "the time between the last two samples of ",
	types.TemporalCount:        "the count of ",
	types.TemporalCountLeading: "the leading count of ",
	types.TemporalForecast:     "the forecast of ",
	types.TemporalAny:          "any of ",
	types.TemporalAll:          "all of ",
}

// Describe renders n as an English phrase. Quantities in units with a metric
// or imperial counterpart are converted to the requested system.
func Describe(n types.Node, metric bool) string {
	d := describer{metric: metric}
	var sb strings.Builder
	d.write(&sb, n)
	return sb.String()
}

type describer struct {
	metric bool
}

func (d describer) list(sb *strings.Builder, nodes []types.Node, last string) {
	for i, c := range nodes {
		switch {
		case i == 0:
		case i == len(nodes)-1:
			sb.WriteString(last)
		default:
			sb.WriteString(", ")
		}
		d.write(sb, c)
	}
}

// operand groups child in parentheses where the serializer would.
func (d describer) operand(sb *strings.Builder, parent, child types.Node) {
	if needsParens(parent, child) {
		sb.WriteByte('(')
		d.write(sb, child)
		sb.WriteByte(')')
		return
	}
	d.write(sb, child)
}

func (d describer) write(sb *strings.Builder, n types.Node) {
	switch n := n.(type) {
	case *types.Constant:
		d.constant(sb, n)
	case *types.Color:
		if n.Name() != "" {
			sb.WriteString(n.Name())
		} else {
			sb.WriteString(n.Hex())
		}
	case *types.Failed:
		sb.WriteString("an invalid expression (")
		sb.WriteString(n.Message())
		sb.WriteByte(')')
	case *types.Variable:
		sb.WriteString(n.Name())
	case *types.Property:
		sb.WriteString(n.Name())
		sb.WriteString(" of ")
		d.write(sb, n.Parent())
	case *types.Parameter:
		sb.WriteString("parameter ")
		sb.WriteString(n.Name())
	case *types.Binary:
		d.operand(sb, n, n.Left())
		sb.WriteString(describeBinary[n.Kind()])
		d.operand(sb, n, n.Right())
	case *types.Nary:
		for i, c := range n.Children() {
			if i > 0 {
				sb.WriteString(describeNary[n.Kind()])
			}
			d.operand(sb, n, c)
		}
	case *types.Unary:
		switch n.Kind() {
		case types.KindNot:
			sb.WriteString("not ")
			d.operand(sb, n, n.Child())
		case types.KindUnaryMinus:
			sb.WriteString("minus ")
			d.operand(sb, n, n.Child())
		case types.KindToLocalTime:
			d.write(sb, n.Child())
			sb.WriteString(" in local time")
		default:
			d.write(sb, n.Child())
		}
	case *types.Ternary:
		sb.WriteString("if ")
		d.write(sb, n.Conditional())
		sb.WriteString(" then ")
		d.write(sb, n.Truth())
		if n.Falsehood() != nil {
			sb.WriteString(" otherwise ")
			d.write(sb, n.Falsehood())
		}
	case *types.Aggregate:
		sb.WriteString(describeAggregate[n.Kind()])
		d.write(sb, n.Child())
	case *types.Temporal:
		d.temporal(sb, n)
	case *types.List:
		switch n.Kind() {
		case types.KindTuple:
			sb.WriteByte('(')
			d.list(sb, n.Children(), ", ")
			sb.WriteByte(')')
		case types.KindSetUnion:
			sb.WriteString("the union of ")
			d.list(sb, n.Children(), " and ")
		case types.KindIntersection:
			sb.WriteString("the intersection of ")
			d.list(sb, n.Children(), " and ")
		default:
			d.list(sb, n.Children(), " and ")
		}
	case *types.Each:
		d.write(sb, n.Body())
		sb.WriteString(" for each ")
		sb.WriteString(n.Variable())
		sb.WriteString(" in ")
		d.write(sb, n.Argument())
	case *types.Wrapped:
		sb.WriteString(Serialize(n))
	case *types.Timer:
		sb.WriteString("the timer")
		if n.Child() != nil {
			sb.WriteString(" for ")
			d.write(sb, n.Child())
		}
	case *types.Call:
		sb.WriteString(strings.ToLower(n.Name()))
		if len(n.Children()) > 0 {
			sb.WriteString(" of ")
			d.list(sb, n.Children(), " and ")
		}
	}
}

func (d describer) constant(sb *strings.Builder, n *types.Constant) {
	v := n.Value()
	switch n.Kind() {
	case types.KindNumber:
		f, unit := v.Float(), n.Unit()
		if unit != "" {
			f, unit = units.Convert(f, unit, d.metric)
		}
		sb.WriteString(types.FormatNumber(roundForDisplay(f)))
		if unit != "" {
			sb.WriteByte(' ')
			sb.WriteString(units.Name(unit, f))
		}
	case types.KindBool:
		if v.Bool() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case types.KindString:
		sb.WriteByte('"')
		sb.WriteString(v.Str())
		sb.WriteByte('"')
	case types.KindDateTime:
		sb.WriteString(v.Time().Format("2 January 2006 15:04"))
	default:
		sb.WriteString("nothing")
	}
}

func (d describer) temporal(sb *strings.Builder, n *types.Temporal) {
	sb.WriteString(describeTemporal[n.Function()])
	d.write(sb, n.Child())
	if n.TimePeriod() != nil {
		sb.WriteString(" over ")
		d.write(sb, n.TimePeriod())
	}
	if n.TimeFrom() != nil {
		sb.WriteString(" ending ")
		from := n.TimeFrom()
		if u, ok := from.(*types.Unary); ok && u.Kind() == types.KindUnaryMinus {
			from = u.Child()
		}
		d.write(sb, from)
		sb.WriteString(" ago")
	}
	if u := n.UnitOfMeasureName(); u != "" && n.Function() == types.TemporalDeltaTime {
		sb.WriteString(" in ")
		sb.WriteString(units.Name(u, 2))
	}
}

// roundForDisplay trims conversion noise to four decimal places.
func roundForDisplay(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Round(f*1e4) / 1e4
}
