// Package core schedules a MIPS-I CPU in fixed cycle slices, the way a host
// machine interleaves its devices, and detects when the program has parked
// itself in a branch-to-self idle loop.
package core

import (
	"github.com/fraido/mame/emu"
)

// DefaultSlice is the number of cycles run between scheduler checks.
const DefaultSlice = 10000

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions executed.
	Instructions uint64
	// Slices is the number of Run slices issued.
	Slices uint64
	// Yields is the number of slices cut short by an interrupt line change.
	Yields uint64
}

// Core drives one CPU through a bus.
type Core struct {
	cpu   *emu.CPU
	bus   emu.Bus
	slice uint64
	stats Stats
}

// NewCore creates a Core running cpu, which must be attached to bus.
func NewCore(cpu *emu.CPU, bus emu.Bus) *Core {
	return &Core{
		cpu:   cpu,
		bus:   bus,
		slice: DefaultSlice,
	}
}

// CPU returns the scheduled CPU.
func (c *Core) CPU() *emu.CPU {
	return c.cpu
}

// SetSlice sets the cycles per slice. Zero keeps the current value.
func (c *Core) SetSlice(cycles uint64) {
	if cycles > 0 {
		c.slice = cycles
	}
}

// SetPC points execution at pc.
func (c *Core) SetPC(pc uint32) {
	c.cpu.RegFile().SetPC(pc)
}

// Tick runs one slice and returns the cycles it used.
func (c *Core) Tick() uint64 {
	return c.runSlice(c.slice)
}

func (c *Core) runSlice(budget uint64) uint64 {
	used := c.cpu.Run(budget)
	c.stats.Slices++
	if used < budget {
		c.stats.Yields++
	}
	c.stats.Cycles += used
	return used
}

// RunCycles runs the core for at least budget cycles, or until it halts.
// It returns the cycles used and whether the core is still running.
func (c *Core) RunCycles(budget uint64) (uint64, bool) {
	var used uint64
	for used < budget {
		if c.Halted() {
			return used, false
		}
		n := c.slice
		if remaining := budget - used; n > remaining {
			n = remaining
		}
		used += c.runSlice(n)
	}
	return used, !c.Halted()
}

// Halted reports whether the CPU is spinning on a branch to itself, either
// at the branch or in its delay slot, with no interrupt pending.
func (c *Core) Halted() bool {
	if c.cpu.InterruptPending() {
		return false
	}

	pc := c.cpu.RegFile().PC
	if c.selfBranch(pc) {
		return true
	}
	return c.cpu.InDelaySlot() && c.selfBranch(pc-4)
}

// selfBranch reports whether the instruction at vaddr jumps to vaddr.
func (c *Core) selfBranch(vaddr uint32) bool {
	res := c.cpu.Translate(vaddr, emu.IntentFetch)
	if !res.OK {
		return false
	}
	word, err := c.bus.Fetch(res.Phys)
	if err != nil {
		return false
	}

	switch word >> 26 {
	case 0x02: // j
		target := (vaddr+4)&0xF0000000 | (word&0x03FFFFFF)<<2
		return target == vaddr
	case 0x04: // beq rs, rs, -1
		rs := (word >> 21) & 0x1F
		rt := (word >> 16) & 0x1F
		return rs == rt && word&0xFFFF == 0xFFFF
	}
	return false
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	stats := c.stats
	stats.Instructions = c.cpu.Stats().Instructions
	return stats
}

// Reset resets the CPU and clears the scheduler statistics.
func (c *Core) Reset() {
	c.cpu.Reset()
	c.stats = Stats{}
}
