package victim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/cachesim/mem/cache"
)

var _ = Describe("Victim Cache", func() {
	var c *Cache

	BeforeEach(func() {
		var err error
		c, err = MakeBuilder().
			WithNumBlocks(2).
			WithBlockSize(16).
			Build("VC")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject an empty victim cache", func() {
		_, err := MakeBuilder().WithNumBlocks(0).Build("VC")

		Expect(errors.Is(err, ErrInvalidCapacity)).To(BeTrue())
	})

	It("should reject a zero block size", func() {
		_, err := MakeBuilder().WithBlockSize(0).Build("VC")

		Expect(errors.Is(err, ErrInvalidCapacity)).To(BeTrue())
	})

	It("should be empty after build", func() {
		Expect(c.Name()).To(Equal("VC"))
		Expect(c.NumBlocks()).To(Equal(2))
		Expect(c.Len()).To(Equal(0))
		Expect(c.IsFull()).To(BeFalse())
	})

	It("should find an inserted block by any address in it", func() {
		_, displaced := c.Insert(cache.Eviction{Address: 0x20, Dirty: true})
		Expect(displaced).To(BeFalse())

		block, found := c.Lookup(0x2f)

		Expect(found).To(BeTrue())
		Expect(block).To(Equal(cache.Eviction{Address: 0x20, Dirty: true}))
		Expect(c.Stats()).To(Equal(Stats{Lookups: 1, Hits: 1, Insertions: 1}))
	})

	It("should count a lookup miss", func() {
		_, found := c.Lookup(0x40)

		Expect(found).To(BeFalse())
		Expect(c.Stats()).To(Equal(Stats{Lookups: 1}))
	})

	It("should displace the least recently inserted block", func() {
		c.Insert(cache.Eviction{Address: 0x00, Dirty: true})
		c.Insert(cache.Eviction{Address: 0x10})
		Expect(c.IsFull()).To(BeTrue())

		displaced, ok := c.Insert(cache.Eviction{Address: 0x20})

		Expect(ok).To(BeTrue())
		Expect(displaced).To(Equal(cache.Eviction{Address: 0x00, Dirty: true}))
		Expect(c.Contains(0x00)).To(BeFalse())
		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		Expect(c.Stats().DirtyEvictions).To(Equal(uint64(1)))
	})

	It("should respect touches", func() {
		c.Insert(cache.Eviction{Address: 0x00})
		c.Insert(cache.Eviction{Address: 0x10})
		c.Touch(0x00)

		displaced, ok := c.Insert(cache.Eviction{Address: 0x20})

		Expect(ok).To(BeTrue())
		Expect(displaced.Address).To(Equal(uint64(0x10)))
		Expect(c.Stats().DirtyEvictions).To(BeZero())
	})

	It("should take a block out", func() {
		c.Insert(cache.Eviction{Address: 0x10, Dirty: true})

		block, found := c.Take(0x18)

		Expect(found).To(BeTrue())
		Expect(block).To(Equal(cache.Eviction{Address: 0x10, Dirty: true}))
		Expect(c.Len()).To(Equal(0))
		Expect(c.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should not take a missing block", func() {
		_, found := c.Take(0x10)

		Expect(found).To(BeFalse())
		Expect(c.Stats()).To(Equal(Stats{Lookups: 1}))
	})

	It("should remove without counting a lookup", func() {
		c.Insert(cache.Eviction{Address: 0x10})

		Expect(c.Remove(0x10)).To(BeTrue())
		Expect(c.Remove(0x10)).To(BeFalse())
		Expect(c.Stats().Lookups).To(BeZero())
	})

	It("should panic when evicting from a non-full victim cache", func() {
		c.Insert(cache.Eviction{Address: 0x10})

		Expect(func() { c.Evict() }).To(Panic())
	})

	It("should reset", func() {
		c.Insert(cache.Eviction{Address: 0x10})
		c.Lookup(0x10)

		c.Reset()

		Expect(c.Len()).To(Equal(0))
		Expect(c.Stats()).To(BeZero())
	})
})
