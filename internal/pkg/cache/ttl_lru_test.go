package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New[string](4, time.Minute)
	c.Set("a", "1")

	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", v)

	_, ok = c.Get("b")
	require.False(t, ok)
}

func TestTTLFromInsertionNotAccess(t *testing.T) {
	now := time.Now()
	c := New(4, time.Minute, WithNow[string](func() time.Time { return now }))

	c.Set("a", "1")

	// 讀取不會延長TTL
	now = now.Add(50 * time.Second)
	_, ok := c.Get("a")
	require.True(t, ok)

	now = now.Add(20 * time.Second)
	_, ok = c.Get("a")
	require.False(t, ok)
}

func TestGetStaleServesExpired(t *testing.T) {
	now := time.Now()
	c := New(4, time.Second, WithNow[string](func() time.Time { return now }))

	c.Set("a", "1")
	now = now.Add(time.Hour)

	_, ok := c.Get("a")
	require.False(t, ok)

	v, ok := c.GetStale("a")
	require.True(t, ok)
	require.Equal(t, "1", v)
}

func TestLRUEviction(t *testing.T) {
	c := New[int](3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	// 觸碰k0讓k1成為最舊
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k3", 3)
	require.Equal(t, 3, c.Len())

	_, ok = c.Get("k1")
	require.False(t, ok)
	_, ok = c.GetStale("k1")
	require.False(t, ok, "淘汰後連stale也不提供")

	_, ok = c.Get("k0")
	require.True(t, ok)
}

func TestSetReplacesWholesale(t *testing.T) {
	now := time.Now()
	c := New(4, time.Second, WithNow[string](func() time.Time { return now }))

	c.Set("a", "1")
	now = now.Add(900 * time.Millisecond)
	c.Set("a", "2")

	// 以重寫時間重新起算TTL
	now = now.Add(500 * time.Millisecond)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "2", v)
}
