package analysis

import (
	"sync"

	"github.com/sandrolain/goexpr/pkg/types"
)

// Memo caches inferred types and units by node identity. Trees are
// immutable, so a result stays valid for as long as the node is alive.
//
// A Memo is safe for concurrent use.
type Memo struct {
	mu    sync.RWMutex
	types map[types.Node]types.Type
	units map[types.Node]string
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	return &Memo{
		types: make(map[types.Node]types.Type),
		units: make(map[types.Node]string),
	}
}

// Type is InferType with memoization.
func (m *Memo) Type(n types.Node) types.Type {
	return inferType(n, m)
}

// Unit is InferUnit with memoization.
func (m *Memo) Unit(n types.Node) string {
	return inferUnit(n, m)
}

// Len returns the number of cached entries.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.types) + len(m.units)
}

// Clear drops every cached entry.
func (m *Memo) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.types)
	clear(m.units)
}

func (m *Memo) cachedType(n types.Node) (types.Type, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[n]
	return t, ok
}

func (m *Memo) storeType(n types.Node, t types.Type) {
	m.mu.Lock()
	m.types[n] = t
	m.mu.Unlock()
}

func (m *Memo) cachedUnit(n types.Node) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[n]
	return u, ok
}

func (m *Memo) storeUnit(n types.Node, u string) {
	m.mu.Lock()
	m.units[n] = u
	m.mu.Unlock()
}
