// Package tagging provides the set-associative bookkeeping shared by the
// caches: which tags live in which way and in what recency order.
package tagging

import (
	"fmt"

	"github.com/google/btree"
)

// A Block of a cache is the information that is associated with a cache line.
// No data payload is modeled.
type Block struct {
	Tag     uint64
	WayID   int
	IsValid bool
	IsDirty bool

	lastVisit uint64
}

// visit is the recency record of a valid way. Stamps only grow, so two
// visits never compare equal.
type visit struct {
	stamp uint64
	wayID int
}

func (v visit) Less(than btree.Item) bool {
	return v.stamp < than.(visit).stamp
}

// A Set is a list of blocks where a certain piece of memory can be stored at.
//
// Blocks live in a fixed arena indexed by way. Lookups return copies, so a
// caller never holds a reference that a later eviction could invalidate.
type Set struct {
	blocks       []Block
	tagToWay     map[uint64]int
	freeWays     []int
	visitTree    *btree.BTree
	visitCount   uint64
	victimFinder VictimFinder
}

// NewSet creates a set with numWays ways that evicts with the given victim
// finder.
func NewSet(numWays int, victimFinder VictimFinder) *Set {
	if numWays <= 0 {
		panic(fmt.Sprintf("set must have at least one way, got %d", numWays))
	}

	s := &Set{
		blocks:       make([]Block, numWays),
		victimFinder: victimFinder,
	}

	s.Reset()

	return s
}

// Reset invalidates all the blocks in the set.
func (s *Set) Reset() {
	numWays := len(s.blocks)

	s.tagToWay = make(map[uint64]int, numWays)
	s.freeWays = make([]int, 0, numWays)
	s.visitTree = btree.New(2)
	s.visitCount = 0

	for i := numWays - 1; i >= 0; i-- {
		s.blocks[i] = Block{WayID: i}
		s.freeWays = append(s.freeWays, i)
	}
}

// NumWays returns the capacity of the set.
func (s *Set) NumWays() int {
	return len(s.blocks)
}

// Len returns the number of valid blocks.
func (s *Set) Len() int {
	return len(s.tagToWay)
}

// IsFull returns true if every way holds a valid block.
func (s *Set) IsFull() bool {
	return len(s.tagToWay) == len(s.blocks)
}

// Lookup finds the valid block with the given tag.
func (s *Set) Lookup(tag uint64) (Block, bool) {
	wayID, ok := s.tagToWay[tag]
	if !ok {
		return Block{}, false
	}

	return s.blocks[wayID], true
}

// Touch makes the block with the given tag the most recently used one.
func (s *Set) Touch(tag uint64) {
	s.Visit(s.mustFindWay(tag))
}

// Visit makes the block in the given way the most recently used one.
func (s *Set) Visit(wayID int) {
	block := &s.blocks[wayID]
	if !block.IsValid {
		panic(fmt.Sprintf("visiting invalid way %d", wayID))
	}

	s.visitTree.Delete(visit{stamp: block.lastVisit, wayID: wayID})

	s.visitCount++
	block.lastVisit = s.visitCount
	s.visitTree.ReplaceOrInsert(visit{stamp: block.lastVisit, wayID: wayID})
}

// MarkDirty sets the dirty bit of the block with the given tag.
func (s *Set) MarkDirty(tag uint64) {
	s.blocks[s.mustFindWay(tag)].IsDirty = true
}

// Insert places a new valid block at the most recently used position and
// returns it. The set must not be full and must not hold the tag.
func (s *Set) Insert(tag uint64, dirty bool) Block {
	if _, found := s.tagToWay[tag]; found {
		panic(fmt.Sprintf("tag 0x%x is already in the set", tag))
	}

	if s.IsFull() {
		panic(fmt.Sprintf("inserting tag 0x%x into a full set", tag))
	}

	wayID := s.freeWays[len(s.freeWays)-1]
	s.freeWays = s.freeWays[:len(s.freeWays)-1]

	s.blocks[wayID] = Block{
		Tag:     tag,
		WayID:   wayID,
		IsValid: true,
		IsDirty: dirty,
	}
	s.tagToWay[tag] = wayID
	s.Visit(wayID)

	return s.blocks[wayID]
}

// Evict removes the block picked by the victim finder and returns it. Only a
// full set can be evicted from.
func (s *Set) Evict() Block {
	if !s.IsFull() {
		panic(fmt.Sprintf("evicting from a set with %d of %d ways in use",
			s.Len(), s.NumWays()))
	}

	victim, ok := s.victimFinder.FindVictim(s)
	if !ok {
		panic("victim finder found no block to evict")
	}

	s.release(victim.WayID)

	return victim
}

// Remove takes the block with the given tag out of the set.
func (s *Set) Remove(tag uint64) (Block, bool) {
	wayID, ok := s.tagToWay[tag]
	if !ok {
		return Block{}, false
	}

	block := s.blocks[wayID]
	s.release(wayID)

	return block, true
}

// Blocks returns a copy of all the ways, valid or not.
func (s *Set) Blocks() []Block {
	blocks := make([]Block, len(s.blocks))
	copy(blocks, s.blocks)

	return blocks
}

// LRUQueue returns the way IDs of the valid blocks, least recently used
// first.
func (s *Set) LRUQueue() []int {
	queue := make([]int, 0, s.visitTree.Len())

	s.visitTree.Ascend(func(i btree.Item) bool {
		queue = append(queue, i.(visit).wayID)
		return true
	})

	return queue
}

func (s *Set) release(wayID int) {
	block := s.blocks[wayID]

	s.visitTree.Delete(visit{stamp: block.lastVisit, wayID: wayID})
	delete(s.tagToWay, block.Tag)

	s.blocks[wayID] = Block{WayID: wayID}
	s.freeWays = append(s.freeWays, wayID)
}

func (s *Set) mustFindWay(tag uint64) int {
	wayID, ok := s.tagToWay[tag]
	if !ok {
		panic(fmt.Sprintf("tag 0x%x is not in the set", tag))
	}

	return wayID
}
