package tagging

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type firstWayVictimFinder struct{}

func (firstWayVictimFinder) FindVictim(set *Set) (Block, bool) {
	return set.blocks[0], true
}

var _ = Describe("Set", func() {
	var (
		set *Set
	)

	BeforeEach(func() {
		set = NewSet(4, NewLRUVictimFinder())
	})

	It("should start empty", func() {
		Expect(set.NumWays()).To(Equal(4))
		Expect(set.Len()).To(Equal(0))
		Expect(set.IsFull()).To(BeFalse())
		Expect(set.LRUQueue()).To(BeEmpty())

		for i, b := range set.Blocks() {
			Expect(b.WayID).To(Equal(i))
			Expect(b.IsValid).To(BeFalse())
		}
	})

	It("should panic on a set without ways", func() {
		Expect(func() { NewSet(0, NewLRUVictimFinder()) }).To(Panic())
	})

	It("should lookup", func() {
		inserted := set.Insert(0x100, false)

		block, ok := set.Lookup(0x100)

		Expect(ok).To(BeTrue())
		Expect(block).To(Equal(inserted))
		Expect(block.IsValid).To(BeTrue())
		Expect(block.IsDirty).To(BeFalse())
	})

	It("should return false when lookup cannot find block", func() {
		block, ok := set.Lookup(0x100)

		Expect(ok).To(BeFalse())
		Expect(block).To(BeZero())
	})

	It("should not change recency on lookup", func() {
		set.Insert(1, false)
		set.Insert(2, false)

		set.Lookup(1)

		Expect(set.LRUQueue()).To(Equal([]int{0, 1}))
	})

	It("should place inserted blocks at the MRU position", func() {
		set.Insert(1, false)
		set.Insert(2, false)
		set.Insert(3, true)

		queue := set.LRUQueue()
		mru := set.Blocks()[queue[len(queue)-1]]
		Expect(mru.Tag).To(Equal(uint64(3)))
		Expect(mru.IsDirty).To(BeTrue())
	})

	It("should update LRU queue when touching a block", func() {
		for tag := uint64(0); tag < 4; tag++ {
			set.Insert(tag, false)
		}

		set.Touch(1)

		Expect(set.LRUQueue()).To(Equal([]int{0, 2, 3, 1}))
	})

	It("should panic when touching an absent tag", func() {
		Expect(func() { set.Touch(7) }).To(Panic())
	})

	It("should panic when inserting a duplicated tag", func() {
		set.Insert(7, false)

		Expect(func() { set.Insert(7, true) }).To(Panic())
	})

	It("should panic when inserting into a full set", func() {
		for tag := uint64(0); tag < 4; tag++ {
			set.Insert(tag, false)
		}

		Expect(set.IsFull()).To(BeTrue())
		Expect(func() { set.Insert(9, false) }).To(Panic())
	})

	It("should panic when evicting from a set that is not full", func() {
		set.Insert(1, false)

		Expect(func() { set.Evict() }).To(Panic())
	})

	It("should evict the least recently used block", func() {
		for tag := uint64(10); tag < 14; tag++ {
			set.Insert(tag, tag%2 == 0)
		}
		set.Touch(10)

		victim := set.Evict()

		Expect(victim.Tag).To(Equal(uint64(11)))
		Expect(victim.IsDirty).To(BeFalse())
		Expect(set.Len()).To(Equal(3))
		_, found := set.Lookup(11)
		Expect(found).To(BeFalse())
	})

	It("should carry the dirty bit of the victim", func() {
		for tag := uint64(10); tag < 14; tag++ {
			set.Insert(tag, false)
		}
		set.MarkDirty(10)

		victim := set.Evict()

		Expect(victim.Tag).To(Equal(uint64(10)))
		Expect(victim.IsDirty).To(BeTrue())
	})

	It("should reuse the evicted way", func() {
		for tag := uint64(10); tag < 14; tag++ {
			set.Insert(tag, false)
		}

		victim := set.Evict()
		block := set.Insert(20, false)

		Expect(block.WayID).To(Equal(victim.WayID))
	})

	It("should remove a block", func() {
		set.Insert(1, true)
		set.Insert(2, false)

		block, ok := set.Remove(1)

		Expect(ok).To(BeTrue())
		Expect(block.Tag).To(Equal(uint64(1)))
		Expect(block.IsDirty).To(BeTrue())
		Expect(set.Len()).To(Equal(1))
		Expect(set.LRUQueue()).To(Equal([]int{1}))

		_, ok = set.Remove(1)
		Expect(ok).To(BeFalse())
	})

	It("should use the given victim finder", func() {
		set = NewSet(2, firstWayVictimFinder{})
		set.Insert(1, false)
		set.Insert(2, false)
		set.Touch(1)

		victim := set.Evict()

		Expect(victim.WayID).To(Equal(0))
		Expect(victim.Tag).To(Equal(uint64(1)))
	})

	It("should reset", func() {
		set.Insert(1, true)
		set.Reset()

		Expect(set.Len()).To(Equal(0))
		_, ok := set.Lookup(1)
		Expect(ok).To(BeFalse())
	})

	It("should never exceed its capacity", func() {
		r := rand.New(rand.NewSource(1))

		for i := 0; i < 1000; i++ {
			tag := uint64(r.Intn(16))

			if _, ok := set.Lookup(tag); ok {
				set.Touch(tag)
				continue
			}

			if set.IsFull() {
				set.Evict()
			}

			set.Insert(tag, r.Intn(2) == 0)

			Expect(set.Len()).To(BeNumerically("<=", set.NumWays()))
			Expect(set.LRUQueue()).To(HaveLen(set.Len()))
		}
	})

	It("should evict the least recently touched of the recent tags", func() {
		// Fill with 0..3, touch in the order 2, 0, 3, 1. The LRU order is
		// now 2, 0, 3, 1 and N misses evict the first N of that order.
		for tag := uint64(0); tag < 4; tag++ {
			set.Insert(tag, false)
		}
		for _, tag := range []uint64{2, 0, 3, 1} {
			set.Touch(tag)
		}

		var evicted []uint64
		for tag := uint64(100); tag < 103; tag++ {
			evicted = append(evicted, set.Evict().Tag)
			set.Insert(tag, false)
		}

		Expect(evicted).To(Equal([]uint64{2, 0, 3}))
	})
})

var _ = Describe("LRUVictimFinder", func() {
	It("should not find a victim in an empty set", func() {
		set := NewSet(2, NewLRUVictimFinder())

		_, ok := NewLRUVictimFinder().FindVictim(set)

		Expect(ok).To(BeFalse())
	})

	It("should find the least recently visited block", func() {
		set := NewSet(2, NewLRUVictimFinder())
		set.Insert(1, false)
		set.Insert(2, false)
		set.Visit(0)

		victim, ok := NewLRUVictimFinder().FindVictim(set)

		Expect(ok).To(BeTrue())
		Expect(victim.Tag).To(Equal(uint64(2)))
	})
})
