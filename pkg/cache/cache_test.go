package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute)

	_, hit := c.Get("missing")
	assert.False(t, hit)

	c.Set("k", 42)
	value, hit := c.Get("k")
	require.True(t, hit)
	assert.Equal(t, 42, value)

	c.Set("k", 43)
	value, _ = c.Get("k")
	assert.Equal(t, 43, value)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("k", "v")

	_, hit := c.Get("k")
	require.True(t, hit)

	assert.Eventually(t, func() bool {
		_, hit := c.Get("k")
		return !hit
	}, time.Second, 5*time.Millisecond)
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New(0)
	c.Set("k", "v")

	time.Sleep(15 * time.Millisecond)
	_, hit := c.Get("k")
	assert.True(t, hit)
}

func TestCache_Delete(t *testing.T) {
	c := New(time.Minute)
	c.Set("k", "v")
	c.Delete("k")

	_, hit := c.Get("k")
	assert.False(t, hit)

	// Deleting an absent key is a no-op.
	c.Delete("k")
}

func TestCache_DeletePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("project:p1:sim:a|b", 1)
	c.Set("project:p1:metrics", 2)
	c.Set("project:p2:metrics", 3)

	removed := c.DeletePrefix("project:p1:")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, hit := c.Get("project:p2:metrics")
	assert.True(t, hit)

	assert.Equal(t, 0, c.DeletePrefix("project:p1:"))
}

func TestCache_Clear(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
