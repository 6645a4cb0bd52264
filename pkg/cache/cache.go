// Package cache memoizes rewritten expression trees.
//
// The simplifier keys entries by a structural encoding of the input tree, so
// equal inputs built independently share one result. Trees are immutable
// and a cached node may be handed to any number of callers.
//
// # Example
//
//	c := cache.New(1024)
//	out, err := c.GetOrBuild(key, func() (types.Node, error) {
//	    return simplify(tree)
//	})
package cache

import (
	"container/list"
	"sync"

	"github.com/sandrolain/goexpr/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

// Stats counts lookups and evictions since the cache was created.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type slot struct {
	key  string
	tree types.Node
}

// call is a build in progress. Concurrent GetOrBuild callers for the same
// key wait on done instead of building again.
type call struct {
	done chan struct{}
	tree types.Node
	err  error
}

// Cache holds at most Capacity trees and drops the one used least recently
// when a new key arrives. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   *list.List // front is most recent
	byKey   map[string]*list.Element
	pending map[string]*call
	stats   Stats
}

// New returns an empty cache holding up to capacity trees.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		max:     capacity,
		order:   list.New(),
		byKey:   make(map[string]*list.Element, capacity),
		pending: make(map[string]*call),
	}
}

// Get looks key up and counts a hit or a miss.
func (c *Cache) Get(key string) (types.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(key)
}

func (c *Cache) lookupLocked(key string) (types.Node, bool) {
	el, ok := c.byKey[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*slot).tree, true
}

// Set stores tree under key, replacing any previous tree.
func (c *Cache) Set(key string, tree types.Node) {
	c.mu.Lock()
	c.storeLocked(key, tree)
	c.mu.Unlock()
}

func (c *Cache) storeLocked(key string, tree types.Node) {
	if el, ok := c.byKey[key]; ok {
		el.Value.(*slot).tree = tree
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*slot).key)
		c.stats.Evictions++
	}
	c.byKey[key] = c.order.PushFront(&slot{key: key, tree: tree})
}

// GetOrBuild returns the tree stored under key. On a miss it runs build once,
// even when several goroutines ask for the same key, and stores a successful
// result. Failed builds are not stored.
func (c *Cache) GetOrBuild(key string, build func() (types.Node, error)) (types.Node, error) {
	c.mu.Lock()
	if tree, ok := c.lookupLocked(key); ok {
		c.mu.Unlock()
		return tree, nil
	}
	if p, ok := c.pending[key]; ok {
		c.mu.Unlock()
		<-p.done
		return p.tree, p.err
	}
	p := &call{done: make(chan struct{})}
	c.pending[key] = p
	c.mu.Unlock()

	p.tree, p.err = build()

	c.mu.Lock()
	delete(c.pending, key)
	if p.err == nil {
		c.storeLocked(key, p.tree)
	}
	c.mu.Unlock()
	close(p.done)
	return p.tree, p.err
}

// Len is the number of stored trees.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity is the maximum number of stored trees.
func (c *Cache) Capacity() int { return c.max }

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Invalidate drops key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		c.order.Remove(el)
		delete(c.byKey, key)
	}
}

// Clear drops every tree. The counters keep running.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.byKey)
}
