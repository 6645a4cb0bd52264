// Package document persists expression trees.
//
// A document holds one tree in which every node names its kind:
//
//	name: heating
//	root:
//	  kind: gt
//	  args:
//	    - kind: temporal
//	      name: AVERAGE
//	      args: [{kind: variable, name: temperature}]
//	      period: {kind: number, num: 1, unit: h}
//	    - {kind: number, num: 21}
//
// Documents round-trip through YAML, JSON and BSON and are validated
// against an embedded CUE schema.
package document

import (
	"fmt"
	"time"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Version is the document format version written by this package.
const Version = 1

// Document is a named tree.
type Document struct {
	Version int    `json:"version,omitempty" yaml:"version,omitempty" bson:"version,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Root    *Node  `json:"root" yaml:"root" bson:"root"`
}

// Node is the persisted form of a types.Node. Which fields are set depends
// on Kind.
type Node struct {
	Kind   string   `json:"kind" yaml:"kind" bson:"kind"`
	Unit   string   `json:"unit,omitempty" yaml:"unit,omitempty" bson:"unit,omitempty"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty" bson:"text,omitempty"`
	Type   string   `json:"type,omitempty" yaml:"type,omitempty" bson:"type,omitempty"`
	Num    *float64 `json:"num,omitempty" yaml:"num,omitempty" bson:"num,omitempty"`
	Flag   *bool    `json:"flag,omitempty" yaml:"flag,omitempty" bson:"flag,omitempty"`
	Str    *string  `json:"str,omitempty" yaml:"str,omitempty" bson:"str,omitempty"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	Args   []*Node  `json:"args,omitempty" yaml:"args,omitempty" bson:"args,omitempty"`
	Period *Node    `json:"period,omitempty" yaml:"period,omitempty" bson:"period,omitempty"`
	From   *Node    `json:"from,omitempty" yaml:"from,omitempty" bson:"from,omitempty"`
	UoM    *Node    `json:"uom,omitempty" yaml:"uom,omitempty" bson:"uom,omitempty"`
}

// New builds a document for tree.
func New(name string, tree types.Node) (*Document, error) {
	root, err := Encode(tree)
	if err != nil {
		return nil, err
	}
	return &Document{Version: Version, Name: name, Root: root}, nil
}

// Tree decodes the document's tree.
func (d *Document) Tree() (types.Node, error) {
	if d == nil || d.Root == nil {
		return nil, invalid("document has no root")
	}
	return Decode(d.Root)
}

func invalid(format string, args ...any) *types.Error {
	return types.Errorf(types.ErrInvalidDocument, format, args...)
}

// Encode converts a tree to its persisted form. Wrapped nodes are kept only
// when they hold a number, bool or string.
func Encode(n types.Node) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	out := &Node{
		Kind: string(n.Kind()),
		Unit: n.Unit(),
		Text: n.Text(),
		Type: n.DeclaredType().String(),
	}

	var err error
	switch x := n.(type) {
	case *types.Constant:
		v := x.Value()
		switch x.Kind() {
		case types.KindNumber:
			f := v.Float()
			out.Num = &f
		case types.KindBool:
			b := v.Bool()
			out.Flag = &b
		case types.KindString:
			s := v.Str()
			out.Str = &s
		case types.KindDateTime:
			s := v.Time().Format(time.RFC3339Nano)
			out.Str = &s
		}
	case *types.Color:
		hex := x.Hex()
		out.Str, out.Name = &hex, x.Name()
	case *types.Failed:
		msg := x.Message()
		out.Str = &msg
	case *types.Variable:
		out.Name = x.Name()
	case *types.Parameter:
		out.Name = x.Name()
	case *types.Property:
		out.Name = x.Name()
		out.Args, err = encodeAll(x.Parent())
	case *types.Binary:
		out.Args, err = encodeAll(x.Left(), x.Right())
	case *types.Nary:
		out.Args, err = encodeAll(x.Children()...)
	case *types.Unary:
		out.Args, err = encodeAll(x.Child())
	case *types.Ternary:
		if x.Falsehood() == nil {
			out.Args, err = encodeAll(x.Conditional(), x.Truth())
		} else {
			out.Args, err = encodeAll(x.Conditional(), x.Truth(), x.Falsehood())
		}
	case *types.Aggregate:
		out.Args, err = encodeAll(x.Child())
	case *types.Temporal:
		out.Name = x.Function()
		if out.Args, err = encodeAll(x.Child()); err != nil {
			return nil, err
		}
		if out.Period, err = Encode(x.TimePeriod()); err != nil {
			return nil, err
		}
		if out.From, err = Encode(x.TimeFrom()); err != nil {
			return nil, err
		}
		out.UoM, err = Encode(x.UnitOfMeasure())
	case *types.List:
		out.Args, err = encodeAll(x.Children()...)
	case *types.Each:
		out.Name = x.Variable()
		out.Args, err = encodeAll(x.Argument(), x.Body())
	case *types.Wrapped:
		out.Name = x.Name()
		err = encodeWrapped(out, x.Value())
	case *types.Timer:
		if x.Child() != nil {
			out.Args, err = encodeAll(x.Child())
		}
	case *types.Call:
		out.Name = x.Name()
		out.Args, err = encodeAll(x.Children()...)
	default:
		panic(fmt.Sprintf("document: unexpected node %T", n))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func encodeAll(nodes ...types.Node) ([]*Node, error) {
	out := make([]*Node, len(nodes))
	for i, c := range nodes {
		enc, err := Encode(c)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func encodeWrapped(out *Node, v any) error {
	switch val := types.FromAny(v); {
	case val.IsNumber():
		f := val.Float()
		out.Num = &f
	case val.IsBool():
		b := val.Bool()
		out.Flag = &b
	case val.IsString():
		s := val.Str()
		out.Str = &s
	default:
		return invalid("cannot persist wrapped %T", v)
	}
	return nil
}

// Decode rebuilds a tree from its persisted form.
func Decode(d *Node) (types.Node, error) {
	if d == nil {
		return nil, invalid("missing node")
	}
	opts := []types.NodeOption{types.WithUnit(d.Unit), types.WithText(d.Text)}
	if d.Type != "" {
		t := types.ParseType(d.Type)
		if t == types.TypeNone {
			return nil, invalid("unknown type %q", d.Type)
		}
		opts = append(opts, types.WithType(t))
	}

	args, err := decodeAll(d.Args)
	if err != nil {
		return nil, err
	}
	kind := types.Kind(d.Kind)
	arity := func(lo, hi int) error {
		if len(args) < lo || len(args) > hi {
			return invalid("%s node needs %d to %d args, has %d", kind, lo, hi, len(args))
		}
		return nil
	}

	switch kind {
	case types.KindNumber:
		if d.Num == nil {
			return nil, invalid("number node without num")
		}
		return types.NewNumber(*d.Num, opts...), nil
	case types.KindBool:
		if d.Flag == nil {
			return nil, invalid("bool node without flag")
		}
		return types.NewBool(*d.Flag, opts...), nil
	case types.KindString:
		if d.Str == nil {
			return nil, invalid("string node without str")
		}
		return types.NewString(*d.Str, opts...), nil
	case types.KindDateTime:
		if d.Str == nil {
			return nil, invalid("datetime node without str")
		}
		t, err := time.Parse(time.RFC3339Nano, *d.Str)
		if err != nil {
			return nil, invalid("datetime %q", *d.Str).WithCause(err)
		}
		return types.NewDateTime(t, opts...), nil
	case types.KindNull:
		return types.NewNull(opts...), nil
	case types.KindColor:
		if d.Str == nil {
			return nil, invalid("color node without str")
		}
		c, err := types.ParseColor(*d.Str, opts...)
		if err != nil {
			return nil, invalid("color %q", *d.Str).WithCause(err)
		}
		if d.Name != "" {
			r, g, b := c.RGB()
			return types.NewColor(r, g, b, d.Name, opts...), nil
		}
		return c, nil
	case types.KindFailed:
		msg := ""
		if d.Str != nil {
			msg = *d.Str
		}
		return types.NewFailed(msg, opts...), nil

	case types.KindVariable:
		return types.NewVariable(d.Name, opts...), nil
	case types.KindParameter:
		return types.NewParameter(d.Name, opts...), nil
	case types.KindProperty:
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		return types.NewProperty(args[0], d.Name, opts...), nil

	case types.KindSubtract, types.KindDivide, types.KindPower, types.KindIs, types.KindEquals,
		types.KindNotEquals, types.KindGreater, types.KindGreaterOrEqual, types.KindLess,
		types.KindLessOrEqual, types.KindMatches:
		if err := arity(2, 2); err != nil {
			return nil, err
		}
		return types.NewBinary(kind, args[0], args[1], opts...), nil
	case types.KindAdd, types.KindMultiply, types.KindAnd, types.KindOr:
		if len(args) == 0 {
			return nil, invalid("%s node without args", kind)
		}
		return types.NewNary(kind, args, opts...), nil
	case types.KindNot, types.KindUnaryMinus, types.KindIdentity, types.KindToLocalTime:
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		return types.NewUnary(kind, args[0], opts...), nil
	case types.KindTernary:
		if err := arity(2, 3); err != nil {
			return nil, err
		}
		var falsehood types.Node
		if len(args) == 3 {
			falsehood = args[2]
		}
		return types.NewTernary(args[0], args[1], falsehood, opts...), nil
	case types.KindSum, types.KindCount, types.KindAverage, types.KindMin, types.KindMax,
		types.KindAny, types.KindAll, types.KindFirst:
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		return types.NewAggregate(kind, args[0], opts...), nil

	case types.KindTemporal:
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		return decodeTemporal(d, args[0], opts)

	case types.KindTuple, types.KindArray, types.KindSetUnion, types.KindIntersection:
		return types.NewList(kind, args, opts...), nil
	case types.KindEach:
		if err := arity(2, 2); err != nil {
			return nil, err
		}
		return types.NewEach(args[0], d.Name, args[1], opts...), nil
	case types.KindWrapped:
		var v any
		switch {
		case d.Num != nil:
			v = *d.Num
		case d.Flag != nil:
			v = *d.Flag
		case d.Str != nil:
			v = *d.Str
		}
		return types.NewWrapped(v, d.Name, opts...), nil
	case types.KindTimer:
		if err := arity(0, 1); err != nil {
			return nil, err
		}
		var child types.Node
		if len(args) == 1 {
			child = args[0]
		}
		return types.NewTimer(child, opts...), nil
	case types.KindCall:
		return types.NewCall(d.Name, args, opts...), nil
	}
	return nil, invalid("unknown node kind %q", d.Kind)
}

func decodeAll(nodes []*Node) ([]types.Node, error) {
	out := make([]types.Node, len(nodes))
	for i, c := range nodes {
		n, err := Decode(c)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decodeTemporal(d *Node, child types.Node, opts []types.NodeOption) (types.Node, error) {
	var topts []types.TemporalOption
	for _, part := range []struct {
		n   *Node
		opt func(types.Node) types.TemporalOption
	}{
		{d.Period, types.Period},
		{d.From, types.From},
		{d.UoM, types.UnitOfMeasure},
	} {
		if part.n == nil {
			continue
		}
		n, err := Decode(part.n)
		if err != nil {
			return nil, err
		}
		topts = append(topts, part.opt(n))
	}
	topts = append(topts, types.NodeOptions(opts...))
	return types.NewTemporal(d.Name, child, topts...), nil
}
