// Package cache models a set-associative, write-back, LRU cache that tracks
// hits, misses and write-backs. No data is stored, only tags and dirty bits.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// Stats are the counters of a cache. They never decrease until ResetStats is
// called.
type Stats struct {
	Reads       uint64 `json:"reads"`
	ReadMisses  uint64 `json:"read_misses"`
	Writes      uint64 `json:"writes"`
	WriteMisses uint64 `json:"write_misses"`
	WriteBacks  uint64 `json:"write_backs"`
}

// A Block is a copy of the information about a cache line.
type Block struct {
	Address uint64
	Tag     uint64
	SetID   int
	WayID   int
	IsDirty bool
}

// An Eviction is a block that leaves a cache. Address is block aligned.
type Eviction struct {
	Address uint64
	Dirty   bool
}

// An EvictionHandler decides where the blocks evicted from a cache go.
type EvictionHandler interface {
	HandleEviction(from *Cache, eviction Eviction)
}

// EvictionHandlerFunc turns a plain function into an EvictionHandler.
type EvictionHandlerFunc func(from *Cache, eviction Eviction)

// HandleEviction calls f.
func (f EvictionHandlerFunc) HandleEviction(from *Cache, eviction Eviction) {
	f(from, eviction)
}

// A Cache is a storage that is managed in sets and blocks.
//
// The Cache does not model timing. It is only responsible for what is stored
// in the cache and for counting the accesses.
type Cache struct {
	hooking.HookableBase

	name             string
	byteSize         uint64
	wayAssociativity int
	blockSize        uint64
	numSets          uint64
	sets             []*tagging.Set

	stats           Stats
	evictionHandler EvictionHandler
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// ByteSize returns the capacity of the cache in bytes.
func (c *Cache) ByteSize() uint64 {
	return c.byteSize
}

// WayAssociativity returns the number of ways per set.
func (c *Cache) WayAssociativity() int {
	return c.wayAssociativity
}

// BlockSize returns the size of a cache line in bytes.
func (c *Cache) BlockSize() uint64 {
	return c.blockSize
}

// NumSets returns the number of sets.
func (c *Cache) NumSets() uint64 {
	return c.numSets
}

// BlockAddress returns the address of the first byte of the line that holds
// address.
func (c *Cache) BlockAddress(address uint64) uint64 {
	return address / c.blockSize * c.blockSize
}

// SetIndex returns the set that address maps to.
func (c *Cache) SetIndex(address uint64) uint64 {
	return (address / c.blockSize) % c.numSets
}

// Tag returns the tag of address.
func (c *Cache) Tag(address uint64) uint64 {
	return address / (c.blockSize * c.numSets)
}

// AddressOf rebuilds the block-aligned address from a set index and a tag.
func (c *Cache) AddressOf(setIndex, tag uint64) uint64 {
	return (tag*c.numSets + setIndex) * c.blockSize
}

// SetEvictionHandler sets where evicted blocks go. Without a handler, dirty
// evictions are counted as write-backs and clean ones are dropped.
func (c *Cache) SetEvictionHandler(h EvictionHandler) {
	c.evictionHandler = h
}

// Access looks up address and, on a hit, makes the block the most recently
// used one in its set. It never allocates.
func (c *Cache) Access(address uint64) (Block, bool) {
	setIndex, tag := c.SetIndex(address), c.Tag(address)
	set := c.sets[setIndex]

	block, found := set.Lookup(tag)
	if !found {
		return Block{}, false
	}

	set.Touch(tag)

	return c.toBlock(setIndex, block), true
}

// Peek reports whether address is cached, without changing recency.
func (c *Cache) Peek(address uint64) bool {
	_, found := c.sets[c.SetIndex(address)].Lookup(c.Tag(address))
	return found
}

// Read counts a read of address and reports whether it hits. A read miss does
// not bring the block in; use Allocate for that.
func (c *Cache) Read(address uint64) bool {
	c.stats.Reads++

	_, hit := c.Access(address)
	if !hit {
		c.stats.ReadMisses++
	}

	c.traceAccess(address, false, hit)

	return hit
}

// Write counts a write of address and reports whether it hits. A hit marks the
// block dirty. A miss allocates a dirty block, evicting the least recently
// used block of the set if it is full.
func (c *Cache) Write(address uint64) bool {
	c.stats.Writes++

	block, hit := c.Access(address)
	if hit {
		c.sets[block.SetID].MarkDirty(block.Tag)
	} else {
		c.stats.WriteMisses++
		c.Allocate(address, true)
	}

	c.traceAccess(address, true, hit)

	return hit
}

// Allocate brings the block of address into the cache at the most recently
// used position. If the set is full, its least recently used block is evicted
// first. The block must not be cached already.
func (c *Cache) Allocate(address uint64, dirty bool) Block {
	setIndex, tag := c.SetIndex(address), c.Tag(address)
	set := c.sets[setIndex]

	if _, found := set.Lookup(tag); found {
		panic(fmt.Sprintf("%s: allocating 0x%x, which is already cached",
			c.name, address))
	}

	if set.IsFull() {
		victim := set.Evict()
		c.evict(Eviction{
			Address: c.AddressOf(setIndex, victim.Tag),
			Dirty:   victim.IsDirty,
		})
	}

	block := set.Insert(tag, dirty)

	return c.toBlock(setIndex, block)
}

// WriteBack counts a dirty block sent to the next level.
func (c *Cache) WriteBack(eviction Eviction) {
	c.stats.WriteBacks++
	c.traceWriteBack(eviction)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// ResetStats clears the counters without touching the content.
func (c *Cache) ResetStats() {
	c.stats = Stats{}
}

// Reset invalidates all the blocks and clears the counters.
func (c *Cache) Reset() {
	for _, set := range c.sets {
		set.Reset()
	}

	c.ResetStats()
}

// ValidBlocks returns the number of valid blocks in each set.
func (c *Cache) ValidBlocks() []int {
	counts := make([]int, len(c.sets))
	for i, set := range c.sets {
		counts[i] = set.Len()
	}

	return counts
}

func (c *Cache) evict(eviction Eviction) {
	if c.evictionHandler != nil {
		c.evictionHandler.HandleEviction(c, eviction)
		return
	}

	if eviction.Dirty {
		c.WriteBack(eviction)
	}
}

func (c *Cache) toBlock(setIndex uint64, b tagging.Block) Block {
	return Block{
		Address: c.AddressOf(setIndex, b.Tag),
		Tag:     b.Tag,
		SetID:   int(setIndex),
		WayID:   b.WayID,
		IsDirty: b.IsDirty,
	}
}
