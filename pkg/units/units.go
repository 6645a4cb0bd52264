// Package units implements the unit tag algebra used by goexpr.
//
// Unit tags are plain strings ("kWh", "m.s", "m/s", "m^2"). They are not a
// dimensional analysis system: the algebra only combines and compares tags.
package units

import "strings"

// Special tags.
const (
	None  = ""
	Bool  = "bool"
	Error = "error"
)

// Sum combines the units of two addends. Equal units are kept, a one-sided
// unit is kept, and two different non-empty units produce Error.
func Sum(a, b string) string {
	switch {
	case a == Error || b == Error:
		return Error
	case a == b:
		return a
	case a == None:
		return b
	case b == None:
		return a
	}
	return Error
}

// Product joins the non-empty units of factors with ".".
func Product(us ...string) string {
	parts := make([]string, 0, len(us))
	for _, u := range us {
		if u == Error {
			return Error
		}
		if u != None {
			parts = append(parts, u)
		}
	}
	return strings.Join(parts, ".")
}

// Quotient divides top by bottom, collapsing to None when they are equal.
func Quotient(top, bottom string) string {
	switch {
	case top == Error || bottom == Error:
		return Error
	case top == bottom:
		return None
	case bottom == None:
		return top
	case top == None:
		return "1/" + bottom
	}
	return top + "/" + bottom
}

// Power raises base to the exponent text.
func Power(base, exponent string) string {
	switch base {
	case Error:
		return Error
	case None:
		return None
	}
	return base + "^" + exponent
}

// Compare checks the operand units of a comparison. It returns Bool when the
// units match or either is empty, otherwise Error.
func Compare(a, b string) string {
	if a == Error || b == Error {
		return Error
	}
	if a == None || b == None || a == b {
		return Bool
	}
	return Error
}
