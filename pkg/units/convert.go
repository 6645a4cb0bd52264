package units

type system uint8

const (
	neutral system = iota
	metric
	imperial
)

type unitInfo struct {
	singular    string
	plural      string
	system      system
	counterpart string
	convert     func(float64) float64
}

var catalog = map[string]unitInfo{
	"°C":   {"degree Celsius", "degrees Celsius", metric, "°F", func(c float64) float64 { return c*9/5 + 32 }},
	"degC": {"degree Celsius", "degrees Celsius", metric, "°F", func(c float64) float64 { return c*9/5 + 32 }},
	"°F":   {"degree Fahrenheit", "degrees Fahrenheit", imperial, "°C", func(f float64) float64 { return (f - 32) * 5 / 9 }},
	"degF": {"degree Fahrenheit", "degrees Fahrenheit", imperial, "°C", func(f float64) float64 { return (f - 32) * 5 / 9 }},
	"m":    {"meter", "meters", metric, "ft", func(v float64) float64 { return v / 0.3048 }},
	"ft":   {"foot", "feet", imperial, "m", func(v float64) float64 { return v * 0.3048 }},
	"km":   {"kilometer", "kilometers", metric, "mi", func(v float64) float64 { return v / 1.609344 }},
	"mi":   {"mile", "miles", imperial, "km", func(v float64) float64 { return v * 1.609344 }},
	"kg":   {"kilogram", "kilograms", metric, "lb", func(v float64) float64 { return v / 0.45359237 }},
	"lb":   {"pound", "pounds", imperial, "kg", func(v float64) float64 { return v * 0.45359237 }},
	"m2":   {"square meter", "square meters", metric, "ft2", func(v float64) float64 { return v / 0.09290304 }},
	"m²":   {"square meter", "square meters", metric, "ft2", func(v float64) float64 { return v / 0.09290304 }},
	"ft2":  {"square foot", "square feet", imperial, "m2", func(v float64) float64 { return v * 0.09290304 }},
	"ft²":  {"square foot", "square feet", imperial, "m2", func(v float64) float64 { return v * 0.09290304 }},
	"L":    {"liter", "liters", metric, "gal", func(v float64) float64 { return v / 3.785411784 }},
	"gal":  {"gallon", "gallons", imperial, "L", func(v float64) float64 { return v * 3.785411784 }},

	"kWh": {"kilowatt hour", "kilowatt hours", neutral, "", nil},
	"kW":  {"kilowatt", "kilowatts", neutral, "", nil},
	"W":   {"watt", "watts", neutral, "", nil},
	"Wh":  {"watt hour", "watt hours", neutral, "", nil},
	"%":   {"percent", "percent", neutral, "", nil},
	"Pa":  {"pascal", "pascals", neutral, "", nil},
	"ppm": {"part per million", "parts per million", neutral, "", nil},
	"A":   {"amp", "amps", neutral, "", nil},
	"V":   {"volt", "volts", neutral, "", nil},
	"ms":  {"millisecond", "milliseconds", neutral, "", nil},
	"s":   {"second", "seconds", neutral, "", nil},
	"min": {"minute", "minutes", neutral, "", nil},
	"h":   {"hour", "hours", neutral, "", nil},
	"d":   {"day", "days", neutral, "", nil},
	"w":   {"week", "weeks", neutral, "", nil},
}

// Convert expresses value in the requested measurement system. Units that
// are not system specific, or already in it, are returned unchanged.
func Convert(value float64, unit string, toMetric bool) (float64, string) {
	info, ok := catalog[unit]
	if !ok || info.convert == nil {
		return value, unit
	}
	if (toMetric && info.system == metric) || (!toMetric && info.system == imperial) {
		return value, unit
	}
	return info.convert(value), info.counterpart
}

// Name spells a unit tag out in English, choosing the plural form unless
// value is exactly one. Unknown tags are returned as is.
func Name(unit string, value float64) string {
	info, ok := catalog[unit]
	if !ok {
		return unit
	}
	if value == 1 || value == -1 {
		return info.singular
	}
	return info.plural
}
