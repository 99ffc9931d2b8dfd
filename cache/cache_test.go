package cache

import (
	"testing"
	"time"

	"github.com/co-fun/mapscontacts/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = "https://www.google.com/maps/search/pizza"

func TestKey(t *testing.T) {
	assert.Equal(t, Key(src, 5), Key(src, 5))
	assert.NotEqual(t, Key(src, 5), Key(src, 6))
	assert.NotEqual(t, Key(src, -1), Key(src+"/", -1))
	assert.Len(t, Key(src, 0), 64)
}

func TestGetSet(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Stop()

	listings := []models.Listing{{Name: "Da Michele"}}
	c.Set("k", src, "rod", listings)
	listings[0].Name = "mutated"

	_, ok := c.Get("k", 0)
	assert.False(t, ok, "max_age 0 disables the cache")

	e, ok := c.Get("k", 60_000)
	require.True(t, ok)
	assert.Equal(t, "Da Michele", e.Listings[0].Name, "cache keeps its own copy")
	assert.Equal(t, "rod", e.EngineUsed)
	assert.Equal(t, src, e.SourceURL)

	_, ok = c.Get("missing", 60_000)
	assert.False(t, ok)
}

func TestGet_TooOld(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Stop()

	c.Set("k", src, "http", nil)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k", 5)
	assert.False(t, ok)
	_, ok = c.Get("k", 60_000)
	assert.True(t, ok)
}

func TestSet_EvictsOldest(t *testing.T) {
	c := New(2, time.Hour)
	defer c.Stop()

	c.Set("a", src, "rod", nil)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", src, "rod", nil)
	time.Sleep(2 * time.Millisecond)
	c.Set("a", src, "rod", nil) // refresh does not evict
	assert.Equal(t, 2, c.Len())

	c.Set("c", src, "rod", nil)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b", 60_000)
	assert.False(t, ok, "b is the oldest entry")
	_, ok = c.Get("a", 60_000)
	assert.True(t, ok)
}

func TestSweep(t *testing.T) {
	c := New(10, time.Minute)
	c.Stop()
	c.Stop()

	c.Set("k", src, "rod", nil)
	c.sweep(time.Now())
	assert.Equal(t, 1, c.Len())

	c.sweep(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, c.Len())
}
