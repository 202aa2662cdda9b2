package restorer

import (
	"testing"

	rtest "github.com/vandry/get-longhorn-backup/internal/test"
)

func TestBlockCache(t *testing.T) {
	c := NewBlockCache(3 * (1000 + cacheOverhead))

	data := rtest.Random(1, 1000)
	c.Add("a", data)
	data[0]++ // the cache keeps a copy

	buf, ok := c.Get("a")
	rtest.Assert(t, ok, "block a not cached")
	rtest.Equals(t, rtest.Random(1, 1000), buf)

	c.Add("b", rtest.Random(2, 1000))
	c.Add("c", rtest.Random(3, 1000))
	rtest.Equals(t, 3, c.Len())

	// a is the least recently used after b and c were added
	_, _ = c.Get("b")
	_, _ = c.Get("c")
	c.Add("d", rtest.Random(4, 1000))
	rtest.Equals(t, 3, c.Len())

	_, ok = c.Get("a")
	rtest.Assert(t, !ok, "block a should have been evicted")
	for _, id := range []string{"b", "c", "d"} {
		_, ok = c.Get(id)
		rtest.Assert(t, ok, "block %v not cached", id)
	}
}

func TestBlockCacheTooLarge(t *testing.T) {
	c := NewBlockCache(1000)
	c.Add("a", rtest.Random(1, 1000))
	rtest.Equals(t, 0, c.Len())
}

func TestBlockCacheDisabled(t *testing.T) {
	c := NewBlockCache(0)
	rtest.Assert(t, c == nil, "cache of size 0 should be nil")

	// Shouldn't panic.
	c.Add("a", []byte("data"))
	_, ok := c.Get("a")
	rtest.Assert(t, !ok, "disabled cache returned a block")
	rtest.Equals(t, 0, c.Len())
}
