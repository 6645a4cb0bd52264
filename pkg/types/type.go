package types

import "strings"

// Type is a static result type tag.
//
// TypeNone means no type was declared on a node. TypeUndefined is the
// sentinel returned by type inference when operand types are incompatible.
// TypeObject stands for "unknown" and is treated permissively.
type Type uint8

const (
	TypeNone Type = iota
	TypeUndefined
	TypeObject
	TypeBool
	TypeString
	TypeDateTime
	TypeTimeSpan
	TypeInt
	TypeLong
	TypeFloat
	TypeDecimal
	TypeDouble
)

var typeNames = map[Type]string{
	TypeNone:      "",
	TypeUndefined: "undefined",
	TypeObject:    "object",
	TypeBool:      "bool",
	TypeString:    "string",
	TypeDateTime:  "datetime",
	TypeTimeSpan:  "timespan",
	TypeInt:       "int",
	TypeLong:      "long",
	TypeFloat:     "float",
	TypeDecimal:   "decimal",
	TypeDouble:    "double",
}

func (t Type) String() string {
	return typeNames[t]
}

// ParseType maps a type name back to its tag. Unknown names yield TypeNone.
func ParseType(name string) Type {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t
		}
	}
	return TypeNone
}

// IsNumeric reports whether t is on the numeric promotion ladder.
func (t Type) IsNumeric() bool {
	return t >= TypeInt && t <= TypeDouble
}

// IsIntegral reports whether t is int or long.
func (t Type) IsIntegral() bool {
	return t == TypeInt || t == TypeLong
}

// Or returns t unless it is TypeNone, in which case it returns def.
func (t Type) Or(def Type) Type {
	if t == TypeNone {
		return def
	}
	return t
}
