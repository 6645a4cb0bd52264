package types

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind identifies the kind of an expression node. The string form doubles as
// the discriminator in persisted documents.
type Kind string

// Node kinds grouped by family.
const (
	// Constants
	KindNumber   Kind = "number"
	KindBool     Kind = "bool"
	KindString   Kind = "string"
	KindDateTime Kind = "datetime"
	KindNull     Kind = "null"
	KindColor    Kind = "color"
	KindFailed   Kind = "failed"

	// References
	KindVariable  Kind = "variable"
	KindProperty  Kind = "property"
	KindParameter Kind = "parameter"

	// Binary operators
	KindSubtract       Kind = "subtract"
	KindDivide         Kind = "divide"
	KindPower          Kind = "power"
	KindIs             Kind = "is"
	KindEquals         Kind = "eq"
	KindNotEquals      Kind = "ne"
	KindGreater        Kind = "gt"
	KindGreaterOrEqual Kind = "ge"
	KindLess           Kind = "lt"
	KindLessOrEqual    Kind = "le"
	KindMatches        Kind = "matches"

	// Commutative n-ary operators
	KindAdd      Kind = "add"
	KindMultiply Kind = "multiply"
	KindAnd      Kind = "and"
	KindOr       Kind = "or"

	// Unary and control
	KindNot         Kind = "not"
	KindUnaryMinus  Kind = "neg"
	KindIdentity    Kind = "identity"
	KindToLocalTime Kind = "localtime"
	KindTernary     Kind = "if"

	// Aggregates over arrays
	KindSum     Kind = "sum"
	KindCount   Kind = "count"
	KindAverage Kind = "average"
	KindMin     Kind = "min"
	KindMax     Kind = "max"
	KindAny     Kind = "any"
	KindAll     Kind = "all"
	KindFirst   Kind = "first"

	// Time-series aggregate
	KindTemporal Kind = "temporal"

	// Structural
	KindTuple        Kind = "tuple"
	KindArray        Kind = "array"
	KindSetUnion     Kind = "union"
	KindIntersection Kind = "intersection"
	KindEach         Kind = "each"
	KindWrapped      Kind = "wrapped"
	KindTimer        Kind = "timer"

	// Function call
	KindCall Kind = "call"
)

// IsComparison reports whether k is a binary comparison.
func (k Kind) IsComparison() bool {
	switch k {
	case KindIs, KindEquals, KindNotEquals, KindGreater, KindGreaterOrEqual, KindLess, KindLessOrEqual:
		return true
	}
	return false
}

// Node is an immutable expression tree node.
//
// The interface is sealed: only the node types in this package implement it,
// so every pass can switch exhaustively over them.
type Node interface {
	Kind() Kind
	// Unit is the unit tag, "" when dimensionless or unknown.
	Unit() string
	// Text is the cached source text, "" when not known.
	Text() string
	// DeclaredType is the type declared at construction, TypeNone if absent.
	DeclaredType() Type

	node()
	meta() attrs
}

type attrs struct {
	unit string
	text string
	typ  Type
}

func (a attrs) Unit() string       { return a.unit }
func (a attrs) Text() string       { return a.text }
func (a attrs) DeclaredType() Type { return a.typ }
func (a attrs) meta() attrs        { return a }
func (attrs) node()                {}

// NodeOption sets construction-time attributes on a node.
type NodeOption func(*attrs)

// WithUnit sets the unit tag.
func WithUnit(unit string) NodeOption {
	return func(a *attrs) { a.unit = unit }
}

// WithText sets the cached source text.
func WithText(text string) NodeOption {
	return func(a *attrs) { a.text = text }
}

// WithType sets the declared type.
func WithType(t Type) NodeOption {
	return func(a *attrs) { a.typ = t }
}

func newAttrs(opts []NodeOption) attrs {
	var a attrs
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Constant is a literal number, boolean, string, date-time or null.
type Constant struct {
	attrs
	kind  Kind
	value Value
}

func (c *Constant) Kind() Kind   { return c.kind }
func (c *Constant) Value() Value { return c.value }

func NewNumber(f float64, opts ...NodeOption) *Constant {
	return &Constant{attrs: newAttrs(opts), kind: KindNumber, value: NumberValue(f)}
}

func NewBool(b bool, opts ...NodeOption) *Constant {
	return &Constant{attrs: newAttrs(opts), kind: KindBool, value: BoolValue(b)}
}

func NewString(s string, opts ...NodeOption) *Constant {
	return &Constant{attrs: newAttrs(opts), kind: KindString, value: StringValue(s)}
}

func NewDateTime(t time.Time, opts ...NodeOption) *Constant {
	return &Constant{attrs: newAttrs(opts), kind: KindDateTime, value: DateTimeValue(t)}
}

func NewNull(opts ...NodeOption) *Constant {
	return &Constant{attrs: newAttrs(opts), kind: KindNull}
}

// NewConstant builds the constant node matching a runtime value.
// Undefined and object values have no literal form and map to null.
func NewConstant(v Value, opts ...NodeOption) *Constant {
	switch v.Kind() {
	case ValueDouble:
		return NewNumber(v.Float(), opts...)
	case ValueBool:
		return NewBool(v.Bool(), opts...)
	case ValueString:
		return NewString(v.Str(), opts...)
	case ValueDateTime:
		return NewDateTime(v.Time(), opts...)
	}
	return NewNull(opts...)
}

// True and False are shared boolean constants. Nodes are immutable, so
// sharing them between trees is safe.
var (
	True  = NewBool(true)
	False = NewBool(false)
)

// Color is an RGB color constant.
type Color struct {
	attrs
	r, g, b uint8
	name    string
}

// NewColor creates a color constant. name is optional ("indian red").
func NewColor(r, g, b uint8, name string, opts ...NodeOption) *Color {
	return &Color{attrs: newAttrs(opts), r: r, g: g, b: b, name: name}
}

// ParseColor parses "#rrggbb".
func ParseColor(hex string, opts ...NodeOption) (*Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.ToLower(hex), "#%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return NewColor(r, g, b, "", opts...), nil
}

func (c *Color) Kind() Kind { return KindColor }
func (c *Color) RGB() (r, g, b uint8) { return c.r, c.g, c.b }
func (c *Color) Name() string { return c.name }
func (c *Color) Hex() string  { return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b) }

// Failed marks a subtree that could not be parsed or built.
type Failed struct {
	attrs
	message string
}

func NewFailed(message string, opts ...NodeOption) *Failed {
	return &Failed{attrs: newAttrs(opts), message: message}
}

func (f *Failed) Kind() Kind      { return KindFailed }
func (f *Failed) Message() string { return f.message }

// Variable is a named lookup in the environment.
type Variable struct {
	attrs
	name string
}

func NewVariable(name string, opts ...NodeOption) *Variable {
	return &Variable{attrs: newAttrs(opts), name: name}
}

func (v *Variable) Kind() Kind   { return KindVariable }
func (v *Variable) Name() string { return v.name }

// Property reads a named member of its parent's value.
type Property struct {
	attrs
	parent Node
	name   string
}

func NewProperty(parent Node, name string, opts ...NodeOption) *Property {
	return &Property{attrs: newAttrs(opts), parent: parent, name: name}
}

func (p *Property) Kind() Kind   { return KindProperty }
func (p *Property) Parent() Node { return p.parent }
func (p *Property) Name() string { return p.name }

// Parameter is an unbound placeholder that must be substituted before
// evaluation.
type Parameter struct {
	attrs
	name string
}

func NewParameter(name string, opts ...NodeOption) *Parameter {
	return &Parameter{attrs: newAttrs(opts), name: name}
}

func (p *Parameter) Kind() Kind   { return KindParameter }
func (p *Parameter) Name() string { return p.name }

// Binary is a non-commutative operator or a comparison.
type Binary struct {
	attrs
	kind        Kind
	left, right Node
}

// NewBinary creates a binary node. kind must be one of the binary kinds.
func NewBinary(kind Kind, left, right Node, opts ...NodeOption) *Binary {
	switch kind {
	case KindSubtract, KindDivide, KindPower, KindMatches:
	default:
		if !kind.IsComparison() {
			panic(fmt.Sprintf("types: %q is not a binary kind", kind))
		}
	}
	return &Binary{attrs: newAttrs(opts), kind: kind, left: left, right: right}
}

func (b *Binary) Kind() Kind  { return b.kind }
func (b *Binary) Left() Node  { return b.left }
func (b *Binary) Right() Node { return b.right }

// Nary is a commutative, associative operator over one or more children.
type Nary struct {
	attrs
	kind     Kind
	children []Node
}

// NewNary creates an add, multiply, and or or node.
func NewNary(kind Kind, children []Node, opts ...NodeOption) *Nary {
	switch kind {
	case KindAdd, KindMultiply, KindAnd, KindOr:
	default:
		panic(fmt.Sprintf("types: %q is not an n-ary kind", kind))
	}
	if len(children) == 0 {
		panic(fmt.Sprintf("types: %s needs at least one child", kind))
	}
	return &Nary{attrs: newAttrs(opts), kind: kind, children: slices.Clone(children)}
}

func (n *Nary) Kind() Kind { return n.kind }

// Children returns the operands. The slice must not be modified.
func (n *Nary) Children() []Node { return n.children }

// Unary is a single-child operator.
type Unary struct {
	attrs
	kind  Kind
	child Node
}

// NewUnary creates a not, unary minus, identity or local-time node.
func NewUnary(kind Kind, child Node, opts ...NodeOption) *Unary {
	switch kind {
	case KindNot, KindUnaryMinus, KindIdentity, KindToLocalTime:
	default:
		panic(fmt.Sprintf("types: %q is not a unary kind", kind))
	}
	return &Unary{attrs: newAttrs(opts), kind: kind, child: child}
}

func (u *Unary) Kind() Kind  { return u.kind }
func (u *Unary) Child() Node { return u.child }

// Ternary is IF(conditional, truth, falsehood). Falsehood may be nil.
type Ternary struct {
	attrs
	cond, truth, falsehood Node
}

func NewTernary(cond, truth, falsehood Node, opts ...NodeOption) *Ternary {
	return &Ternary{attrs: newAttrs(opts), cond: cond, truth: truth, falsehood: falsehood}
}

func (t *Ternary) Kind() Kind        { return KindTernary }
func (t *Ternary) Conditional() Node { return t.cond }
func (t *Ternary) Truth() Node       { return t.truth }
func (t *Ternary) Falsehood() Node   { return t.falsehood }

// Aggregate reduces an array child, or degrades to its scalar child.
type Aggregate struct {
	attrs
	kind  Kind
	child Node
}

// NewAggregate creates a sum, count, average, min, max, any, all or first node.
func NewAggregate(kind Kind, child Node, opts ...NodeOption) *Aggregate {
	switch kind {
	case KindSum, KindCount, KindAverage, KindMin, KindMax, KindAny, KindAll, KindFirst:
	default:
		panic(fmt.Sprintf("types: %q is not an aggregate kind", kind))
	}
	return &Aggregate{attrs: newAttrs(opts), kind: kind, child: child}
}

func (a *Aggregate) Kind() Kind  { return a.kind }
func (a *Aggregate) Child() Node { return a.child }

// Temporal function names.
const (
	TemporalAverage      = "AVERAGE"
	TemporalMin          = "MIN"
	TemporalMax          = "MAX"
	TemporalSlope        = "SLOPE"
	TemporalStnd         = "STND"
	TemporalDelta        = "DELTA"
	TemporalDeltaTime    = "DELTA_TIME"
	TemporalCount        = "COUNT"
	TemporalCountLeading = "COUNTLEADING"
	TemporalForecast     = "FORECAST"
	TemporalAny          = "ANY"
	TemporalAll          = "ALL"
)

// Temporal is a windowed aggregate over a time series.
type Temporal struct {
	attrs
	function      string
	child         Node
	period        Node
	from          Node
	unitOfMeasure Node
}

// TemporalOption sets the optional operands of a temporal node.
type TemporalOption func(*Temporal)

// Period sets the unit-tagged time window, e.g. a number with unit "h".
func Period(n Node) TemporalOption { return func(t *Temporal) { t.period = n } }

// From sets the offset the window ends at.
func From(n Node) TemporalOption { return func(t *Temporal) { t.from = n } }

// UnitOfMeasure sets the result unit for DELTA_TIME.
func UnitOfMeasure(n Node) TemporalOption { return func(t *Temporal) { t.unitOfMeasure = n } }

// NodeOptions applies node attributes to a temporal node.
func NodeOptions(opts ...NodeOption) TemporalOption {
	return func(t *Temporal) {
		for _, opt := range opts {
			opt(&t.attrs)
		}
	}
}

func NewTemporal(function string, child Node, opts ...TemporalOption) *Temporal {
	t := &Temporal{function: strings.ToUpper(function), child: child}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Temporal) Kind() Kind          { return KindTemporal }
func (t *Temporal) Function() string    { return t.function }
func (t *Temporal) Child() Node         { return t.child }
func (t *Temporal) TimePeriod() Node    { return t.period }
func (t *Temporal) TimeFrom() Node      { return t.from }
func (t *Temporal) UnitOfMeasure() Node { return t.unitOfMeasure }

// UnitOfMeasureName returns the DELTA_TIME result unit as written, "" when
// absent. A bare identifier or a string literal both name the unit.
func (t *Temporal) UnitOfMeasureName() string {
	switch u := t.unitOfMeasure.(type) {
	case nil:
		return ""
	case *Variable:
		return u.name
	case *Constant:
		if u.kind == KindString {
			return u.value.Str()
		}
	}
	if t.unitOfMeasure.Unit() != "" {
		return t.unitOfMeasure.Unit()
	}
	return t.unitOfMeasure.Text()
}

// List is a tuple, array, set union or intersection.
type List struct {
	attrs
	kind     Kind
	children []Node
}

func NewList(kind Kind, children []Node, opts ...NodeOption) *List {
	switch kind {
	case KindTuple, KindArray, KindSetUnion, KindIntersection:
	default:
		panic(fmt.Sprintf("types: %q is not a list kind", kind))
	}
	return &List{attrs: newAttrs(opts), kind: kind, children: slices.Clone(children)}
}

func (l *List) Kind() Kind { return l.kind }

// Children returns the elements. The slice must not be modified.
func (l *List) Children() []Node { return l.children }

// Each binds Variable to every element of Argument and evaluates Body.
type Each struct {
	attrs
	arg      Node
	variable string
	body     Node
}

func NewEach(arg Node, variable string, body Node, opts ...NodeOption) *Each {
	return &Each{attrs: newAttrs(opts), arg: arg, variable: variable, body: body}
}

func (e *Each) Kind() Kind       { return KindEach }
func (e *Each) Argument() Node   { return e.arg }
func (e *Each) Variable() string { return e.variable }
func (e *Each) Body() Node       { return e.body }

// Wrapped carries an opaque host value through the tree.
type Wrapped struct {
	attrs
	value any
	name  string
}

func NewWrapped(value any, name string, opts ...NodeOption) *Wrapped {
	return &Wrapped{attrs: newAttrs(opts), value: value, name: name}
}

func (w *Wrapped) Kind() Kind   { return KindWrapped }
func (w *Wrapped) Value() any   { return w.value }
func (w *Wrapped) Name() string { return w.name }

// Timer is a timer expression. Child may be nil.
type Timer struct {
	attrs
	child Node
}

func NewTimer(child Node, opts ...NodeOption) *Timer {
	return &Timer{attrs: newAttrs(opts), child: child}
}

func (t *Timer) Kind() Kind  { return KindTimer }
func (t *Timer) Child() Node { return t.child }

// Call invokes a named function.
type Call struct {
	attrs
	name     string
	children []Node
}

func NewCall(name string, children []Node, opts ...NodeOption) *Call {
	return &Call{attrs: newAttrs(opts), name: name, children: slices.Clone(children)}
}

func (c *Call) Kind() Kind   { return KindCall }
func (c *Call) Name() string { return c.name }

// Children returns the arguments. The slice must not be modified.
func (c *Call) Children() []Node { return c.children }
