package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fraido/mame/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// 1KB direct-mapped, one word per line: 256 lines.
		c = cache.New(cache.DefaultConfig(1024))
	})

	Describe("Undersized configurations", func() {
		It("should disable a cache smaller than one line", func() {
			for _, size := range []int{1, 2, 3} {
				small := cache.New(cache.DefaultConfig(size))
				Expect(small.Enabled()).To(BeFalse(), "size %d", size)

				small.Fill(0x1000, 1)
				Expect(small.Read(0x1000).Hit).To(BeFalse())
				Expect(small.Stats()).To(Equal(cache.Statistics{}))
			}
		})

		It("should disable a cache without ways", func() {
			config := cache.DefaultConfig(1024)
			config.Associativity = 0
			Expect(cache.New(config).Enabled()).To(BeFalse())
		})
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			result := c.Read(0x1000)
			Expect(result.Hit).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit after a fill", func() {
			c.Fill(0x1000, 0xCAFEBABE)

			result := c.Read(0x1000)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(0xCAFEBABE)))

			stats := c.Stats()
			Expect(stats.Fills).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
		})

		It("should return the indexed line contents on a miss", func() {
			c.Fill(0x1000, 0x12345678)

			// 0x1400 maps to the same line with a different tag.
			result := c.Read(0x1400)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Data).To(Equal(uint32(0x12345678)))
		})
	})

	Describe("Conflict behavior", func() {
		It("should evict on a conflicting fill", func() {
			c.Fill(0x1000, 1)
			c.Fill(0x1400, 2)

			Expect(c.Read(0x1000).Hit).To(BeFalse())
			result := c.Read(0x1400)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(2)))
		})
	})

	Describe("Write operations", func() {
		It("should merge a partial write into a hit", func() {
			c.Fill(0x2000, 0x11223344)

			result := c.Write(0x2000, 0x0000AA00, 0x0000FF00)
			Expect(result.Hit).To(BeTrue())
			Expect(c.Read(0x2000).Data).To(Equal(uint32(0x1122AA44)))
		})

		It("should allocate on a full-word write miss", func() {
			result := c.Write(0x2000, 0xDEADBEEF, 0xFFFFFFFF)
			Expect(result.Hit).To(BeFalse())

			read := c.Read(0x2000)
			Expect(read.Hit).To(BeTrue())
			Expect(read.Data).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should not allocate on a partial write miss", func() {
			c.Write(0x2000, 0xEF, 0xFF)
			Expect(c.Read(0x2000).Hit).To(BeFalse())
		})
	})

	Describe("Invalidation", func() {
		It("should invalidate a matching line", func() {
			c.Fill(0x3000, 7)
			c.Invalidate(0x3000)

			Expect(c.Read(0x3000).Hit).To(BeFalse())
			Expect(c.Stats().Invalidations).To(Equal(uint64(1)))
		})

		It("should invalidate the indexed line even when the tag differs", func() {
			c.Fill(0x3000, 7)
			c.Invalidate(0x3400)

			Expect(c.Read(0x3000).Hit).To(BeFalse())
		})

		It("should invalidate everything on flush", func() {
			c.Fill(0x0000, 1)
			c.Fill(0x0004, 2)
			c.Flush()

			Expect(c.Read(0x0000).Hit).To(BeFalse())
			Expect(c.Read(0x0004).Hit).To(BeFalse())
			Expect(c.Stats().Invalidations).To(Equal(uint64(2)))
		})
	})

	Describe("Reset", func() {
		It("should clear lines and statistics", func() {
			c.Fill(0x1000, 1)
			c.Read(0x1000)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0x1000).Hit).To(BeFalse())
		})
	})

	Describe("Disabled cache", func() {
		It("should do nothing with zero size", func() {
			disabled := cache.New(cache.DefaultConfig(0))
			Expect(disabled.Enabled()).To(BeFalse())

			disabled.Fill(0x1000, 1)
			Expect(disabled.Read(0x1000).Hit).To(BeFalse())
			Expect(disabled.Stats()).To(Equal(cache.Statistics{}))
		})
	})
})
