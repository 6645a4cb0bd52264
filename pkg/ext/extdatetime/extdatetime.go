// Package extdatetime provides date/time functions beyond the builtin date
// table.
//
// Arguments are DateTime values; numbers are accepted as Unix seconds like
// the builtins. Units are the engine's time unit tags ("s", "min", "h", "d",
// "w") plus the calendar units "month" and "year".
package extdatetime

import (
	"context"
	"strings"
	"time"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
	"github.com/sandrolain/goexpr/pkg/units"
)

// All returns all extended date/time function definitions.
func All() []functions.Def {
	return []functions.Def{
		DateAdd(),
		DateDiff(),
		StartOf(),
		Year(),
		UnixSeconds(),
	}
}

// DateAdd returns the definition for DATEADD(date, amount, unit).
func DateAdd() functions.Def {
	return functions.Def{
		Name:      "DATEADD",
		Signature: "<d-n-s:d>",
		Doc:       "shift a date by an amount of a unit",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			t, amount, unit := args[0].Time(), args[1].Float(), strings.ToLower(args[2].Str())
			switch unit {
			case "year":
				return types.DateTimeValue(t.AddDate(int(amount), 0, 0)), nil
			case "month":
				return types.DateTimeValue(t.AddDate(0, int(amount), 0)), nil
			}
			d, ok := (units.Quantity{Value: amount, Unit: unit}).Duration()
			if !ok {
				return types.Undefined, nil
			}
			return types.DateTimeValue(t.Add(d)), nil
		},
	}
}

// DateDiff returns the definition for DATEDIFF(from, to, unit): to minus
// from in the unit, fractional for time units and whole for calendar units.
func DateDiff() functions.Def {
	return functions.Def{
		Name:      "DATEDIFF",
		Signature: "<d-d-s:n>",
		Doc:       "difference between two dates in a unit",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			from, to, unit := args[0].Time(), args[1].Time(), strings.ToLower(args[2].Str())
			switch unit {
			case "year":
				return types.NumberValue(float64(monthsBetween(from, to) / 12)), nil
			case "month":
				return types.NumberValue(float64(monthsBetween(from, to))), nil
			}
			if !units.IsTimeUnit(unit) {
				return types.Undefined, nil
			}
			return types.NumberValue(units.In(to.Sub(from), unit)), nil
		},
	}
}

// monthsBetween counts whole calendar months from a to b, negative when b
// is before a.
func monthsBetween(a, b time.Time) int {
	sign := 1
	if b.Before(a) {
		a, b, sign = b, a, -1
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
	if a.AddDate(0, months, 0).After(b) {
		months--
	}
	return sign * months
}

// StartOf returns the definition for STARTOF(date, unit), truncating to the
// start of the hour, day, week (Monday), month or year in the date's zone.
func StartOf() functions.Def {
	return functions.Def{
		Name:      "STARTOF",
		Signature: "<d-s:d>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			t := args[0].Time()
			y, m, d := t.Date()
			loc := t.Location()
			unit := strings.ToLower(args[1].Str())
			if dur, ok := units.ParseTimeUnit(unit); ok {
				switch dur {
				case time.Hour:
					unit = "h"
				case 24 * time.Hour:
					unit = "d"
				case 7 * 24 * time.Hour:
					unit = "w"
				}
			}
			switch unit {
			case "h":
				return types.DateTimeValue(time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)), nil
			case "d":
				return types.DateTimeValue(time.Date(y, m, d, 0, 0, 0, 0, loc)), nil
			case "w":
				offset := (int(t.Weekday()) + 6) % 7
				return types.DateTimeValue(time.Date(y, m, d-offset, 0, 0, 0, 0, loc)), nil
			case "month":
				return types.DateTimeValue(time.Date(y, m, 1, 0, 0, 0, 0, loc)), nil
			case "year":
				return types.DateTimeValue(time.Date(y, time.January, 1, 0, 0, 0, 0, loc)), nil
			}
			return types.Undefined, nil
		},
	}
}

// Year returns the definition for YEAR(date).
func Year() functions.Def {
	return functions.Def{
		Name:      "YEAR",
		Signature: "<d:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			return types.NumberValue(float64(args[0].Time().Year())), nil
		},
	}
}

// UnixSeconds returns the definition for UNIXSECONDS(date).
func UnixSeconds() functions.Def {
	return functions.Def{
		Name:      "UNIXSECONDS",
		Signature: "<d:n>",
		Fn: func(_ context.Context, args []types.Value) (types.Value, error) {
			t := args[0].Time()
			return types.NumberValue(float64(t.UnixNano()) / float64(time.Second)), nil
		},
	}
}
