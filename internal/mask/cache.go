package mask

import (
	"image"

	"github.com/lumenwerk/panomask/internal/monitoring"
)

// frameKey addresses one sequence frame within a panorama's layer set.
type frameKey struct {
	gray  uint8
	seq   int
	frame int
}

// frameCache is a bounded insertion-order cache for decoded sequence
// frames. Eviction removes the oldest-inserted entry; the bound matters
// for memory, the exact eviction order does not.
type frameCache struct {
	capacity int
	entries  map[frameKey]*image.Gray
	order    []frameKey
}

func newFrameCache(capacity int) *frameCache {
	if capacity < 1 {
		capacity = 1
	}
	return &frameCache{
		capacity: capacity,
		entries:  make(map[frameKey]*image.Gray, capacity),
	}
}

func (c *frameCache) get(k frameKey) (*image.Gray, bool) {
	img, ok := c.entries[k]
	if ok {
		monitoring.Stats.AddCacheHit()
	} else {
		monitoring.Stats.AddCacheMiss()
	}
	return img, ok
}

func (c *frameCache) put(k frameKey, img *image.Gray) {
	if _, ok := c.entries[k]; ok {
		c.entries[k] = img
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		monitoring.Stats.AddCacheEviction()
	}

	c.entries[k] = img
	c.order = append(c.order, k)
}

func (c *frameCache) len() int {
	return len(c.entries)
}

func (c *frameCache) clear() {
	c.entries = make(map[frameKey]*image.Gray, c.capacity)
	c.order = nil
}
