package tagging

import "github.com/google/btree"

// A VictimFinder decides which block should be evicted.
type VictimFinder interface {
	FindVictim(set *Set) (Block, bool)
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the least recently used block in a set.
func (e *LRUVictimFinder) FindVictim(set *Set) (Block, bool) {
	var (
		victim Block
		found  bool
	)

	set.visitTree.Ascend(func(i btree.Item) bool {
		block := set.blocks[i.(visit).wayID]
		if !block.IsValid {
			return true
		}

		victim = block
		found = true

		return false
	})

	return victim, found
}
