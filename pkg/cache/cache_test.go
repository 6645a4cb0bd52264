package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/goexpr/pkg/cache"
	"github.com/sandrolain/goexpr/pkg/types"
)

func TestCapacity(t *testing.T) {
	assert.Equal(t, 10, cache.New(10).Capacity())
	assert.Equal(t, cache.DefaultCapacity, cache.New(0).Capacity())
	assert.Equal(t, cache.DefaultCapacity, cache.New(-3).Capacity())
}

func TestStoredTreeIsShared(t *testing.T) {
	c := cache.New(4)
	tree := types.Add(types.Var("x"), types.Num(1))
	c.Set("x + 1|double|", tree)

	got, ok := c.Get("x + 1|double|")
	require.True(t, ok)
	assert.Same(t, tree, got)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("x + 2|double|")
	assert.False(t, ok)
	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestLeastRecentlyUsedIsDropped(t *testing.T) {
	c := cache.New(3)
	c.Set("temp", types.Var("temp"))
	c.Set("humidity", types.Var("humidity"))
	c.Set("pressure", types.Var("pressure"))

	_, ok := c.Get("temp")
	require.True(t, ok)
	c.Set("wind", types.Var("wind"))

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("humidity")
	assert.False(t, ok, "humidity was used least recently")
	for _, k := range []string{"temp", "pressure", "wind"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestReplaceKeepsSize(t *testing.T) {
	c := cache.New(2)
	c.Set("k", types.Num(1))
	c.Set("k", types.Num(2))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, types.Num(2), got)
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, c.Stats().Evictions)
}

func TestInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("a", types.Num(1))
	c.Set("b", types.Num(2))

	c.Invalidate("a")
	c.Invalidate("missing")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestGetOrBuild(t *testing.T) {
	c := cache.New(4)
	builds := 0
	build := func() (types.Node, error) {
		builds++
		return types.Num(14), nil
	}

	first, err := c.GetOrBuild("2 + 3 * 4", build)
	require.NoError(t, err)
	second, err := c.GetOrBuild("2 + 3 * 4", build)
	require.NoError(t, err)

	assert.Equal(t, 1, builds)
	assert.Same(t, first, second)
	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestGetOrBuildDoesNotStoreFailures(t *testing.T) {
	c := cache.New(4)
	boom := errors.New("boom")

	_, err := c.GetOrBuild("k", func() (types.Node, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	got, err := c.GetOrBuild("k", func() (types.Node, error) { return types.Num(1), nil })
	require.NoError(t, err)
	assert.Equal(t, types.Num(1), got)
}

func TestGetOrBuildRunsOncePerKey(t *testing.T) {
	c := cache.New(4)
	var builds atomic.Int32
	release := make(chan struct{})
	build := func() (types.Node, error) {
		builds.Add(1)
		<-release
		return types.Num(7), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]types.Node, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.GetOrBuild("slow", build)
			assert.NoError(t, err)
			results[i] = n
		}()
	}
	require.Eventually(t, func() bool { return builds.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, n := range results {
		assert.Equal(t, types.Num(7), n)
	}
}

func TestConcurrentUse(t *testing.T) {
	c := cache.New(16)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d", (i+j)%32)
				c.Set(key, types.Num(float64(j)))
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), c.Capacity())
}
