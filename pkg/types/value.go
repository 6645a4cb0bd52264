package types

import (
	"math"
	"strconv"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueUndefined ValueKind = iota
	ValueDouble
	ValueBool
	ValueString
	ValueDateTime
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueDouble:
		return "double"
	case ValueBool:
		return "bool"
	case ValueString:
		return "string"
	case ValueDateTime:
		return "datetime"
	case ValueObject:
		return "object"
	}
	return "undefined"
}

// Value is a runtime value produced by evaluation.
//
// The zero Value is Undefined: the result could not be determined from the
// environment. Undefined is not an error.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
	str  string
	t    time.Time
	obj  any
}

// Undefined is the sentinel for values that cannot be determined.
var Undefined = Value{}

func NumberValue(f float64) Value { return Value{kind: ValueDouble, num: f} }
func BoolValue(b bool) Value { return Value{kind: ValueBool, b: b} }
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }
func DateTimeValue(t time.Time) Value { return Value{kind: ValueDateTime, t: t} }

// ObjectValue wraps an opaque host value such as a temporal series.
func ObjectValue(v any) Value {
	if v == nil {
		return Undefined
	}
	return Value{kind: ValueObject, obj: v}
}

// FromAny converts a Go value into a Value. Unknown types become objects.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Undefined
	case Value:
		return x
	case float64:
		return NumberValue(x)
	case float32:
		return NumberValue(float64(x))
	case int:
		return NumberValue(float64(x))
	case int8:
		return NumberValue(float64(x))
	case int16:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case uint:
		return NumberValue(float64(x))
	case uint8:
		return NumberValue(float64(x))
	case uint16:
		return NumberValue(float64(x))
	case uint32:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	case bool:
		return BoolValue(x)
	case string:
		return StringValue(x)
	case time.Time:
		return DateTimeValue(x)
	}
	return ObjectValue(v)
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == ValueUndefined }
func (v Value) IsNumber() bool { return v.kind == ValueDouble }
func (v Value) IsBool() bool { return v.kind == ValueBool }
func (v Value) IsString() bool { return v.kind == ValueString }
func (v Value) IsDateTime() bool { return v.kind == ValueDateTime }
func (v Value) IsObject() bool { return v.kind == ValueObject }
func (v Value) Float() float64 { return v.num }
func (v Value) Bool() bool { return v.b }
func (v Value) Str() string { return v.str }
func (v Value) Time() time.Time { return v.t }
func (v Value) Object() any { return v.obj }
func (v Value) IsNaN() bool { return v.kind == ValueDouble && math.IsNaN(v.num) }
func (v Value) IsNumberOrBool() bool { return v.kind == ValueDouble || v.kind == ValueBool }

// ToFloat coerces numbers, booleans and numeric strings to float64.
func (v Value) ToFloat() (float64, bool) {
	switch v.kind {
	case ValueDouble:
		return v.num, true
	case ValueBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case ValueString:
		f, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Interface returns the Go representation of v (nil for Undefined).
func (v Value) Interface() any {
	switch v.kind {
	case ValueDouble:
		return v.num
	case ValueBool:
		return v.b
	case ValueString:
		return v.str
	case ValueDateTime:
		return v.t
	case ValueObject:
		return v.obj
	}
	return nil
}

// Equal reports whether two values hold the same variant and payload.
// NaN is never equal to anything, matching float comparison.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueUndefined:
		return true
	case ValueDouble:
		return v.num == o.num
	case ValueBool:
		return v.b == o.b
	case ValueString:
		return v.str == o.str
	case ValueDateTime:
		return v.t.Equal(o.t)
	}
	return sameHostValue(v.obj, o.obj)
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case ValueDouble:
		return FormatNumber(v.num)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueString:
		return v.str
	case ValueDateTime:
		return v.t.Format(time.RFC3339Nano)
	case ValueObject:
		if s, ok := v.obj.(interface{ String() string }); ok {
			return s.String()
		}
		return "object"
	}
	return "undefined"
}

// FormatNumber renders a float in its shortest round-tripping form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
