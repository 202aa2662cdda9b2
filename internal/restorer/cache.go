package restorer

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/vandry/get-longhorn-backup/internal/debug"
)

// Crude estimate of the overhead per entry: the key and the list element.
const cacheOverhead = 64 + 64

// BlockCache is a size-limited LRU cache of decompressed blocks, keyed by the
// checksum of the stored block.
type BlockCache struct {
	mu sync.Mutex
	c  *simplelru.LRU[string, []byte]

	free, size int
}

// NewBlockCache returns a cache that holds at most size bytes. It returns nil
// if size is not positive; all methods of a nil cache are no-ops.
func NewBlockCache(size int) *BlockCache {
	if size <= 0 {
		return nil
	}

	c := &BlockCache{
		free: size,
		size: size,
	}

	// Entries are evicted by Add when free space runs out, so the count limit
	// only needs to be large enough to never be hit first.
	lru, err := simplelru.NewLRU(size/cacheOverhead+1, func(_ string, v []byte) {
		c.free += cap(v) + cacheOverhead
	})
	if err != nil {
		panic(err) // only happens when maxEntries <= 0
	}
	c.c = lru

	return c
}

// Add stores a copy of data under checksum. Blocks larger than the whole cache
// are not stored.
func (c *BlockCache) Add(checksum string, data []byte) {
	if c == nil {
		return
	}

	size := len(data) + cacheOverhead
	if size > c.size {
		debug.Log("block %v too large for cache (%d > %d)", checksum, size, c.size)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.c.Contains(checksum) {
		return
	}

	for c.free < size {
		_, _, ok := c.c.RemoveOldest()
		if !ok {
			break
		}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	c.c.Add(checksum, buf)
	c.free -= cap(buf) + cacheOverhead
}

// Get returns the cached block for checksum. The returned slice must not be
// modified.
func (c *BlockCache) Get(checksum string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.c.Get(checksum)
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.c.Len()
}
