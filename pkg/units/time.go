package units

import (
	"math"
	"strings"
	"time"
)

var timeUnits = map[string]time.Duration{
	"ms":           time.Millisecond,
	"millisecond":  time.Millisecond,
	"milliseconds": time.Millisecond,
	"s":            time.Second,
	"sec":          time.Second,
	"secs":         time.Second,
	"second":       time.Second,
	"seconds":      time.Second,
	"min":          time.Minute,
	"mins":         time.Minute,
	"minute":       time.Minute,
	"minutes":      time.Minute,
	"h":            time.Hour,
	"hr":           time.Hour,
	"hrs":          time.Hour,
	"hour":         time.Hour,
	"hours":        time.Hour,
	"d":            24 * time.Hour,
	"day":          24 * time.Hour,
	"days":         24 * time.Hour,
	"w":            7 * 24 * time.Hour,
	"wk":           7 * 24 * time.Hour,
	"week":         7 * 24 * time.Hour,
	"weeks":        7 * 24 * time.Hour,
}

// ParseTimeUnit returns the duration of one unit of a time unit tag.
func ParseTimeUnit(tag string) (time.Duration, bool) {
	d, ok := timeUnits[strings.ToLower(strings.TrimSpace(tag))]
	return d, ok
}

// IsTimeUnit reports whether tag names a time unit.
func IsTimeUnit(tag string) bool {
	_, ok := ParseTimeUnit(tag)
	return ok
}

// Quantity is a number tagged with a unit, such as a temporal window "1h".
type Quantity struct {
	Value float64
	Unit  string
}

// Duration converts a time quantity to a duration. Quantities in other units
// return false.
func (q Quantity) Duration() (time.Duration, bool) {
	d, ok := ParseTimeUnit(q.Unit)
	if !ok || math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
		return 0, false
	}
	return time.Duration(q.Value * float64(d)), true
}

// IsZero reports whether q is the zero quantity (no window given).
func (q Quantity) IsZero() bool {
	return q.Value == 0 && q.Unit == ""
}

// In expresses a duration in the given time unit, defaulting to seconds.
func In(d time.Duration, tag string) float64 {
	u, ok := ParseTimeUnit(tag)
	if !ok {
		u = time.Second
	}
	return float64(d) / float64(u)
}
