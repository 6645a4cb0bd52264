package evaluator

import (
	"github.com/sandrolain/goexpr/pkg/types"
)

func fnHour(args []types.Value) types.Value {
	return types.NumberValue(float64(args[0].Time().Hour()))
}

func fnMinute(args []types.Value) types.Value {
	return types.NumberValue(float64(args[0].Time().Minute()))
}

// fnDay is the day of the month.
func fnDay(args []types.Value) types.Value {
	return types.NumberValue(float64(args[0].Time().Day()))
}

// fnDayOfWeek counts from Sunday = 0.
func fnDayOfWeek(args []types.Value) types.Value {
	return types.NumberValue(float64(args[0].Time().Weekday()))
}

func fnMonth(args []types.Value) types.Value {
	return types.NumberValue(float64(args[0].Time().Month()))
}
