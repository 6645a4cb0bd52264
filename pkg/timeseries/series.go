// Package timeseries provides an in-memory sample series that temporal
// aggregates can query.
//
// A window is measured back from the latest sample: AVERAGE(power, 1h)
// covers the samples of the last hour of data, not of the wall clock.
package timeseries

import (
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sandrolain/goexpr/pkg/evaluator"
	"github.com/sandrolain/goexpr/pkg/units"
)

// Sample is one timestamped reading.
type Sample struct {
	Time  time.Time
	Value float64
}

// Series is an ordered set of samples. It is safe for concurrent use.
type Series struct {
	name string

	mu      sync.RWMutex
	samples []Sample
}

var _ evaluator.TemporalObject = (*Series)(nil)

// New creates a series holding samples in time order. A later sample with
// the same timestamp replaces an earlier one.
func New(name string, samples ...Sample) *Series {
	s := &Series{name: name}
	s.Append(samples...)
	return s
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// Len returns the number of samples.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Samples returns a copy of the samples in time order.
func (s *Series) Samples() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.samples)
}

// Last returns the latest sample.
func (s *Series) Last() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Append inserts samples keeping time order.
func (s *Series) Append(samples ...Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, smp := range samples {
		i := sort.Search(len(s.samples), func(i int) bool {
			return !s.samples[i].Time.Before(smp.Time)
		})
		if i < len(s.samples) && s.samples[i].Time.Equal(smp.Time) {
			s.samples[i] = smp
			continue
		}
		s.samples = slices.Insert(s.samples, i, smp)
	}
}

// span converts a window bound to a non-negative duration. Bounds that are
// not time quantities count as zero.
func span(q evaluator.UnitValue) time.Duration {
	d, ok := q.Duration()
	if !ok {
		return 0
	}
	if d < 0 {
		d = -d
	}
	return d
}

// window returns the samples between start and end back from the latest
// sample, both inclusive. A zero start selects the whole series.
func (s *Series) window(start, end evaluator.UnitValue) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return nil
	}
	last := s.samples[len(s.samples)-1].Time
	to := last.Add(-span(end))
	from := s.samples[0].Time
	if d := span(start); d > 0 {
		from = last.Add(-d)
	}
	lo := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].Time.Before(from)
	})
	hi := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Time.After(to)
	})
	if lo >= hi {
		return nil
	}
	return slices.Clone(s.samples[lo:hi])
}

func truthy(f float64) bool {
	return f != 0 && !math.IsNaN(f)
}

// All reports whether every sample in the window is nonzero. An empty
// window is false.
func (s *Series) All(start, end evaluator.UnitValue) bool {
	w := s.window(start, end)
	for _, smp := range w {
		if !truthy(smp.Value) {
			return false
		}
	}
	return len(w) > 0
}

// Any reports whether some sample in the window is nonzero.
func (s *Series) Any(start, end evaluator.UnitValue) bool {
	for _, smp := range s.window(start, end) {
		if truthy(smp.Value) {
			return true
		}
	}
	return false
}

// Average is the mean of the window, NaN when empty.
func (s *Series) Average(start, end evaluator.UnitValue) float64 {
	w := s.window(start, end)
	if len(w) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, smp := range w {
		sum += smp.Value
	}
	return sum / float64(len(w))
}

// Count is the number of samples in the window.
func (s *Series) Count(start, end evaluator.UnitValue) float64 {
	return float64(len(s.window(start, end)))
}

// Delta is the last value of the window minus the first.
func (s *Series) Delta(start, end evaluator.UnitValue) float64 {
	w := s.window(start, end)
	if len(w) < 2 {
		return 0
	}
	return w[len(w)-1].Value - w[0].Value
}

// Forecast extrapolates the window's linear trend one period past the
// latest sample.
func (s *Series) Forecast(start, end evaluator.UnitValue) float64 {
	w := s.window(start, end)
	switch len(w) {
	case 0:
		return math.NaN()
	case 1:
		return w[0].Value
	}
	slope, intercept := regression(w)
	at := w[len(w)-1].Time.Add(span(start)).Sub(w[0].Time).Seconds()
	return intercept + slope*at
}

// Max is the largest value in the window, NaN when empty.
func (s *Series) Max(start, end evaluator.UnitValue) float64 {
	return s.extreme(start, end, math.Max)
}

// Min is the smallest value in the window, NaN when empty.
func (s *Series) Min(start, end evaluator.UnitValue) float64 {
	return s.extreme(start, end, math.Min)
}

func (s *Series) extreme(start, end evaluator.UnitValue, pick func(a, b float64) float64) float64 {
	w := s.window(start, end)
	if len(w) == 0 {
		return math.NaN()
	}
	out := w[0].Value
	for _, smp := range w[1:] {
		out = pick(out, smp.Value)
	}
	return out
}

// Slope is the least squares slope of the window in value per second.
func (s *Series) Slope(start, end evaluator.UnitValue) float64 {
	w := s.window(start, end)
	if len(w) < 2 {
		return 0
	}
	slope, _ := regression(w)
	return slope
}

// StandardDeviation is the sample standard deviation of the window.
func (s *Series) StandardDeviation(start, end evaluator.UnitValue) float64 {
	w := s.window(start, end)
	if len(w) < 2 {
		return 0
	}
	mean := 0.0
	for _, smp := range w {
		mean += smp.Value
	}
	mean /= float64(len(w))
	sum := 0.0
	for _, smp := range w {
		d := smp.Value - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(w)-1))
}

func (s *Series) lastTwo() (prev, last Sample, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.samples)
	if n < 2 {
		return Sample{}, Sample{}, false
	}
	return s.samples[n-2], s.samples[n-1], true
}

// DeltaLastAndPrevious is the change between the last two samples.
func (s *Series) DeltaLastAndPrevious() float64 {
	prev, last, ok := s.lastTwo()
	if !ok {
		return 0
	}
	return last.Value - prev.Value
}

// DeltaTimeLastAndPrevious is the time between the last two samples in unit.
func (s *Series) DeltaTimeLastAndPrevious(unit string) float64 {
	prev, last, ok := s.lastTwo()
	if !ok {
		return 0
	}
	return units.In(last.Time.Sub(prev.Time), unit)
}

// IsInRange reports whether the series reaches back far enough for start.
func (s *Series) IsInRange(start, _ evaluator.UnitValue) (bool, time.Duration) {
	want := span(start)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return want == 0, want
	}
	have := s.samples[len(s.samples)-1].Time.Sub(s.samples[0].Time)
	if have >= want {
		return true, 0
	}
	return false, want - have
}

// regression fits value = intercept + slope*t with t in seconds from the
// first sample.
func regression(w []Sample) (slope, intercept float64) {
	n := float64(len(w))
	var sx, sy, sxx, sxy float64
	for _, smp := range w {
		x := smp.Time.Sub(w[0].Time).Seconds()
		sx += x
		sy += smp.Value
		sxx += x * x
		sxy += x * smp.Value
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0, sy / n
	}
	slope = (n*sxy - sx*sy) / den
	return slope, (sy - slope*sx) / n
}
