package timeseries

import (
	"maps"
	"slices"
	"sync"

	"github.com/sandrolain/goexpr/pkg/evaluator"
)

// Set holds series by name and resolves them for the evaluator.
//
//	set := timeseries.NewSet(power, temperature)
//	ev := evaluator.New(evaluator.WithTemporal(set.Lookup))
type Set struct {
	mu     sync.RWMutex
	series map[string]*Series
}

// NewSet creates a set holding the given series.
func NewSet(series ...*Series) *Set {
	s := &Set{series: make(map[string]*Series, len(series))}
	for _, ser := range series {
		s.Add(ser)
	}
	return s
}

// Add stores ser under its name, replacing any series with the same name.
func (s *Set) Add(ser *Series) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[ser.Name()] = ser
}

// Get returns the series called name.
func (s *Set) Get(name string) (*Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ser, ok := s.series[name]
	return ser, ok
}

// Names returns the series names, sorted.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.series))
}

// Lookup is an evaluator.TemporalResolver. Unknown names resolve to nil.
func (s *Set) Lookup(name string) evaluator.TemporalObject {
	ser, ok := s.Get(name)
	if !ok {
		return nil
	}
	return ser
}
