package pattern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu        sync.Mutex
	hits      int
	misses    int
	evictions int
	size      int
}

func (o *countingObserver) CacheHit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits++
}

func (o *countingObserver) CacheMiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses++
}

func (o *countingObserver) CacheEviction() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evictions++
}

func (o *countingObserver) CacheSize(size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.size = size
}

func TestCache_HitAndMiss(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	c := NewCache(10, obs)

	first, err := c.Compile("app://items/:id")
	require.NoError(t, err)
	second, err := c.Compile("app://items/:id")
	require.NoError(t, err)

	assert.Same(t, first.regex, second.regex)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.size)
	assert.Equal(t, 1, c.Len())
}

func TestCache_SameExpressionDifferentNames(t *testing.T) {
	t.Parallel()

	c := NewCache(10, nil)

	byID, err := c.Compile("app://items/:id")
	require.NoError(t, err)
	bySlug, err := c.Compile("app://items/:slug")
	require.NoError(t, err)

	assert.Same(t, byID.regex, bySlug.regex)
	assert.Equal(t, []string{"slug"}, bySlug.Identifiers())

	params, ok := bySlug.Params("app://items/hello")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"slug": "hello"}, params)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	c := NewCache(2, obs)

	_, err := c.Compile("app://a")
	require.NoError(t, err)
	_, err = c.Compile("app://b")
	require.NoError(t, err)

	// Touch a so b becomes the eviction candidate.
	_, err = c.Compile("app://a")
	require.NoError(t, err)

	_, err = c.Compile("app://c")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, obs.evictions)

	_, hasA := c.entries[mustExpression("app://a")]
	_, hasB := c.entries[mustExpression("app://b")]
	assert.True(t, hasA)
	assert.False(t, hasB)
}

func TestCache_DefaultSize(t *testing.T) {
	t.Parallel()

	c := NewCache(0, nil)
	assert.Equal(t, DefaultCacheSize, c.maxSize)
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewCache(50, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := c.Compile(fmt.Sprintf("app://items/%d/:id", i%5))
			assert.NoError(t, err)
			assert.NotNil(t, m)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}

func mustExpression(pattern string) string {
	expression, _ := translate(pattern)
	return expression
}
