// Package cache provides MIPS-I instruction and data cache modeling using
// Akita cache components.
//
// The caches are bookkeeping only: normal accesses still read and write the
// bus, and the cache keeps tags, line contents and statistics. Software sees
// the cache contents directly when the Status register isolates the cache.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// LineSize is the MIPS-I cache line size in bytes (one word).
const LineSize = 4

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes. Sizes below one line per way disable the cache.
	Size int
	// Associativity (number of ways). MIPS-I caches are direct-mapped.
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
}

// DefaultConfig returns a direct-mapped, one-word-line configuration of the
// given size.
func DefaultConfig(size int) Config {
	return Config{
		Size:          size,
		Associativity: 1,
		BlockSize:     LineSize,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Data is the word held by the indexed line, valid or not.
	Data uint32
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads         uint64
	Writes        uint64
	Hits          uint64
	Misses        uint64
	Fills         uint64
	Invalidations uint64
}

// Cache represents a physically tagged cache using Akita cache components.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]byte

	stats Statistics
}

// New creates a new cache with the given configuration. A cache too small to
// hold one line in every way is disabled.
func New(config Config) *Cache {
	c := &Cache{config: config}
	if config.Associativity <= 0 || config.BlockSize <= 0 ||
		config.Size < config.Associativity*config.BlockSize {
		return c
	}

	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	c.dataStore = make([][]byte, totalBlocks)
	for i := range c.dataStore {
		c.dataStore[i] = make([]byte, config.BlockSize)
	}

	c.directory = akitacache.NewDirectory(
		numSets,
		config.Associativity,
		config.BlockSize,
		akitacache.NewLRUVictimFinder(),
	)

	return c
}

// Enabled reports whether the cache has any capacity.
func (c *Cache) Enabled() bool {
	return c.directory != nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	bs := uint64(c.config.BlockSize)
	return (uint64(addr) / bs) * bs
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) word(block *akitacache.Block, addr uint32) uint32 {
	offset := uint64(addr) % uint64(c.config.BlockSize) &^ 3
	return extractWord(c.dataStore[c.blockIndex(block)], offset)
}

func (c *Cache) setWord(block *akitacache.Block, addr uint32, value, mask uint32) {
	offset := uint64(addr) % uint64(c.config.BlockSize) &^ 3
	data := c.dataStore[c.blockIndex(block)]
	old := extractWord(data, offset)
	storeWord(data, offset, (old&^mask)|(value&mask))
}

// Read looks up the word containing addr. On a miss, Data holds whatever the
// line that addr indexes currently contains.
func (c *Cache) Read(addr uint32) AccessResult {
	if !c.Enabled() {
		return AccessResult{}
	}
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return AccessResult{Hit: true, Data: c.word(block, addr)}
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return AccessResult{}
	}
	return AccessResult{Data: c.word(victim, addr)}
}

// Fill installs the word at addr as a valid line, replacing the victim.
func (c *Cache) Fill(addr uint32, value uint32) {
	if !c.Enabled() {
		return
	}

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(blockAddr)
		if block == nil {
			return
		}
		block.Tag = blockAddr
		block.IsValid = true
		block.IsDirty = false
		c.stats.Fills++
	}

	c.setWord(block, addr, value, 0xFFFFFFFF)
	c.directory.Visit(block)
}

// Write updates the word containing addr with the masked value. A full-word
// write allocates the line; a partial write only updates a line that hits.
func (c *Cache) Write(addr uint32, value, mask uint32) AccessResult {
	if !c.Enabled() {
		return AccessResult{}
	}
	c.stats.Writes++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.setWord(block, addr, value, mask)
		c.directory.Visit(block)
		return AccessResult{Hit: true}
	}

	c.stats.Misses++
	if mask == 0xFFFFFFFF {
		c.Fill(addr, value)
	}
	return AccessResult{}
}

// Invalidate marks the line holding addr as invalid. For a direct-mapped
// cache the indexed line is invalidated even when its tag differs.
func (c *Cache) Invalidate(addr uint32) {
	if !c.Enabled() {
		return
	}

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block == nil && c.config.Associativity == 1 {
		block = c.directory.FindVictim(blockAddr)
	}
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
		c.stats.Invalidations++
	}
}

// Flush invalidates every line.
func (c *Cache) Flush() {
	if !c.Enabled() {
		return
	}

	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				c.stats.Invalidations++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	if c.Enabled() {
		c.directory.Reset()
	}
	c.stats = Statistics{}
}

// extractWord reads a word from a line at offset.
func extractWord(data []byte, offset uint64) uint32 {
	if int(offset)+4 > len(data) {
		return 0
	}

	var result uint32
	for i := 0; i < 4; i++ {
		result |= uint32(data[int(offset)+i]) << (i * 8)
	}
	return result
}

// storeWord writes a word into a line at offset.
func storeWord(data []byte, offset uint64, value uint32) {
	if int(offset)+4 > len(data) {
		return
	}

	for i := 0; i < 4; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}
