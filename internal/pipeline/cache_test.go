package pipeline

import (
	"testing"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := newLRUCache(2)
	a, b, d := &domain.Dataset{}, &domain.Dataset{}, &domain.Dataset{}

	c.put("a", a)
	c.put("b", b)
	c.put("c", d)

	_, ok := c.get("a")
	assert.False(t, ok, "a should be evicted")
	got, ok := c.get("b")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := newLRUCache(2)
	a, b := &domain.Dataset{}, &domain.Dataset{}

	c.put("a", a)
	c.put("b", b)
	c.get("a")
	c.put("c", &domain.Dataset{})

	_, ok := c.get("a")
	assert.True(t, ok)
	_, ok = c.get("b")
	assert.False(t, ok, "b should be evicted")
}

func TestLRUCache_PutReplaces(t *testing.T) {
	c := newLRUCache(2)
	first, second := &domain.Dataset{}, &domain.Dataset{}

	c.put("a", first)
	c.put("a", second)

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_Clear(t *testing.T) {
	c := newLRUCache(0)
	c.put("a", &domain.Dataset{})

	assert.Equal(t, 1, c.clear())
	assert.Equal(t, 0, c.len())
	_, ok := c.get("a")
	assert.False(t, ok)

	c.put("b", &domain.Dataset{})
	assert.Equal(t, 1, c.len())
}
