package timeseries_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/timeseries"
	"github.com/sandrolain/goexpr/pkg/types"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// ramp has one sample every 10 minutes for two hours: 0, 1, 2, ... 12.
func ramp() *timeseries.Series {
	var samples []timeseries.Sample
	for i := 0; i <= 12; i++ {
		samples = append(samples, timeseries.Sample{
			Time:  t0.Add(time.Duration(i) * 10 * time.Minute),
			Value: float64(i),
		})
	}
	return timeseries.New("power", samples...)
}

func hours(v float64) evaluator.UnitValue { return evaluator.UnitValue{Value: v, Unit: "h"} }

var none evaluator.UnitValue

func TestSeriesOrdering(t *testing.T) {
	s := timeseries.New("x",
		timeseries.Sample{Time: t0.Add(2 * time.Minute), Value: 3},
		timeseries.Sample{Time: t0, Value: 1},
		timeseries.Sample{Time: t0.Add(time.Minute), Value: 2},
	)
	s.Append(timeseries.Sample{Time: t0.Add(time.Minute), Value: 20})

	require.Equal(t, 3, s.Len())
	got := s.Samples()
	assert.Equal(t, []float64{1, 20, 3}, []float64{got[0].Value, got[1].Value, got[2].Value})

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 3.0, last.Value)
}

func TestSeriesWindows(t *testing.T) {
	s := ramp()

	// The last hour holds 6..12.
	assert.InDelta(t, 9.0, s.Average(hours(1), none), 1e-9)
	assert.Equal(t, 7.0, s.Count(hours(1), none))
	assert.Equal(t, 6.0, s.Min(hours(1), none))
	assert.Equal(t, 12.0, s.Max(hours(1), none))
	assert.Equal(t, 6.0, s.Delta(hours(1), none))

	// A negated period is the same window.
	assert.InDelta(t, 9.0, s.Average(hours(-1), none), 1e-9)

	// From one hour ago back to two hours ago: 0..6.
	assert.InDelta(t, 3.0, s.Average(hours(2), hours(1)), 1e-9)

	// No period covers the whole series.
	assert.Equal(t, 13.0, s.Count(none, none))
}

func TestSeriesTrend(t *testing.T) {
	s := ramp()

	// One unit every 600 seconds.
	assert.InDelta(t, 1.0/600, s.Slope(hours(1), none), 1e-12)
	// One more hour continues the ramp to 18.
	assert.InDelta(t, 18.0, s.Forecast(hours(1), none), 1e-9)
	assert.InDelta(t, 2.160247, s.StandardDeviation(hours(1), none), 1e-6)
}

func TestSeriesLogic(t *testing.T) {
	s := ramp()
	assert.True(t, s.All(hours(1), none))
	assert.False(t, s.All(hours(2), none), "the first sample is 0")
	assert.True(t, s.Any(hours(2), none))

	zeros := timeseries.New("z", timeseries.Sample{Time: t0, Value: 0})
	assert.False(t, zeros.Any(hours(1), none))
}

func TestSeriesEmpty(t *testing.T) {
	s := timeseries.New("empty")

	assert.True(t, math.IsNaN(s.Average(hours(1), none)))
	assert.True(t, math.IsNaN(s.Max(hours(1), none)))
	assert.True(t, math.IsNaN(s.Forecast(hours(1), none)))
	assert.Zero(t, s.Count(hours(1), none))
	assert.Zero(t, s.Slope(hours(1), none))
	assert.Zero(t, s.DeltaLastAndPrevious())
	assert.False(t, s.All(hours(1), none))

	ok, shortfall := s.IsInRange(hours(1), none)
	assert.False(t, ok)
	assert.Equal(t, time.Hour, shortfall)
}

func TestSeriesLastAndPrevious(t *testing.T) {
	s := timeseries.New("x",
		timeseries.Sample{Time: t0, Value: 10},
		timeseries.Sample{Time: t0.Add(90 * time.Second), Value: 12.5},
	)
	assert.Equal(t, 2.5, s.DeltaLastAndPrevious())
	assert.Equal(t, 90.0, s.DeltaTimeLastAndPrevious("s"))
	assert.Equal(t, 1.5, s.DeltaTimeLastAndPrevious("min"))
	assert.Equal(t, 90.0, s.DeltaTimeLastAndPrevious(""))
}

func TestSeriesIsInRange(t *testing.T) {
	s := ramp()

	ok, shortfall := s.IsInRange(hours(2), none)
	assert.True(t, ok)
	assert.Zero(t, shortfall)

	ok, shortfall = s.IsInRange(evaluator.UnitValue{Value: 150, Unit: "min"}, none)
	assert.False(t, ok)
	assert.Equal(t, 30*time.Minute, shortfall)
}

func TestSeriesConcurrentAppend(t *testing.T) {
	s := timeseries.New("x")
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Append(timeseries.Sample{Time: t0.Add(time.Duration(g*50+i) * time.Second), Value: 1})
				_ = s.Average(hours(1), none)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 200, s.Len())
}

func TestSetLookup(t *testing.T) {
	set := timeseries.NewSet(ramp(), timeseries.New("temp"))

	assert.Equal(t, []string{"power", "temp"}, set.Names())
	assert.NotNil(t, set.Lookup("power"))
	assert.Nil(t, set.Lookup("missing"))
}

func TestEvaluateTemporal(t *testing.T) {
	set := timeseries.NewSet(ramp())
	ev := evaluator.New(evaluator.WithTemporal(set.Lookup))

	tree := types.NewTemporal("AVERAGE", types.Var("power"), types.Period(types.NewNumber(1, types.WithUnit("h"))))
	v, err := ev.Eval(context.Background(), tree, nil)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, v.Float(), 1e-9)
	assert.True(t, ev.Success())

	// Three hours reach past the first sample.
	tree = types.NewTemporal("MAX", types.Var("power"), types.Period(types.NewNumber(3, types.WithUnit("h"))))
	v, err = ev.Eval(context.Background(), tree, nil)
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(12), v)
	assert.False(t, ev.Success())
	assert.Equal(t, "Variable 'power' does not have sufficient data for period 1h0m0s", ev.Err())
}

func TestEvaluateSeriesInSource(t *testing.T) {
	tree := types.NewTemporal("DELTA", types.Var("p"), types.Period(types.NewNumber(30, types.WithUnit("min"))))
	v, err := evaluator.New().Eval(context.Background(), tree, map[string]any{"p": ramp()})
	require.NoError(t, err)
	assert.Equal(t, types.NumberValue(3), v)
}
