// Package victim provides a small fully-associative cache that holds the
// blocks recently evicted from an upper-level cache.
package victim

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// ErrInvalidCapacity is returned when a victim cache is built without any
// block or with a non-positive block size.
var ErrInvalidCapacity = errors.New("invalid victim cache capacity")

// Stats are the counters of a victim cache.
type Stats struct {
	Lookups        uint64 `json:"lookups"`
	Hits           uint64 `json:"hits"`
	Insertions     uint64 `json:"insertions"`
	Evictions      uint64 `json:"evictions"`
	DirtyEvictions uint64 `json:"dirty_evictions"`
}

// Builder can build victim caches.
type Builder struct {
	numBlocks int
	blockSize int
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		numBlocks: 4,
		blockSize: 64,
	}
}

// WithNumBlocks sets how many blocks the victim cache holds.
func (b Builder) WithNumBlocks(numBlocks int) Builder {
	b.numBlocks = numBlocks
	return b
}

// WithBlockSize sets the block size, which must match the cache above.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// Build builds a victim cache.
func (b Builder) Build(name string) (*Cache, error) {
	if b.numBlocks <= 0 || b.blockSize <= 0 {
		return nil, fmt.Errorf("victim cache %s: %w: %d blocks of %d bytes",
			name, ErrInvalidCapacity, b.numBlocks, b.blockSize)
	}

	c := &Cache{
		name:      name,
		blockSize: uint64(b.blockSize),
		set:       tagging.NewSet(b.numBlocks, tagging.NewLRUVictimFinder()),
	}

	return c, nil
}

// A Cache is a victim cache. Its tag is the block-aligned address, so it
// holds blocks from any set of the cache above.
type Cache struct {
	name      string
	blockSize uint64
	set       *tagging.Set
	stats     Stats
}

// Name returns the name of the victim cache.
func (c *Cache) Name() string {
	return c.name
}

// NumBlocks returns the capacity in blocks.
func (c *Cache) NumBlocks() int {
	return c.set.NumWays()
}

// Len returns the number of valid blocks.
func (c *Cache) Len() int {
	return c.set.Len()
}

// IsFull returns true if no free slot is left.
func (c *Cache) IsFull() bool {
	return c.set.IsFull()
}

// Tag returns the tag used for address.
func (c *Cache) Tag(address uint64) uint64 {
	return address / c.blockSize * c.blockSize
}

// Lookup counts a lookup and returns the block holding address, if any.
// Recency is not changed.
func (c *Cache) Lookup(address uint64) (cache.Eviction, bool) {
	c.stats.Lookups++

	block, found := c.set.Lookup(c.Tag(address))
	if !found {
		return cache.Eviction{}, false
	}

	c.stats.Hits++

	return cache.Eviction{Address: block.Tag, Dirty: block.IsDirty}, true
}

// Touch makes the block holding address the most recently used one.
func (c *Cache) Touch(address uint64) {
	c.set.Touch(c.Tag(address))
}

// Take removes the block holding address so that it can move back up. It
// counts as a lookup.
func (c *Cache) Take(address uint64) (cache.Eviction, bool) {
	block, found := c.Lookup(address)
	if !found {
		return block, false
	}

	c.set.Remove(c.Tag(address))

	return block, true
}

// Evict removes the least recently used block. The victim cache must be full.
func (c *Cache) Evict() cache.Eviction {
	block := c.set.Evict()

	c.stats.Evictions++
	if block.IsDirty {
		c.stats.DirtyEvictions++
	}

	return cache.Eviction{Address: block.Tag, Dirty: block.IsDirty}
}

// Insert stores a block evicted from the cache above at the most recently
// used position. If the victim cache is full, the least recently used block is
// displaced and returned.
func (c *Cache) Insert(block cache.Eviction) (displaced cache.Eviction, ok bool) {
	if c.set.IsFull() {
		displaced = c.Evict()
		ok = true
	}

	c.set.Insert(c.Tag(block.Address), block.Dirty)
	c.stats.Insertions++

	return displaced, ok
}

// Remove drops the block holding address without counting a lookup.
func (c *Cache) Remove(address uint64) bool {
	_, found := c.set.Remove(c.Tag(address))
	return found
}

// Contains reports whether address is held, without side effects.
func (c *Cache) Contains(address uint64) bool {
	_, found := c.set.Lookup(c.Tag(address))
	return found
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Reset drops every block and clears the counters.
func (c *Cache) Reset() {
	c.set.Reset()
	c.stats = Stats{}
}
