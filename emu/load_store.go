package emu

import (
	"github.com/fraido/mame/insts"
	"github.com/fraido/mame/timing/cache"
	"github.com/sirupsen/logrus"
)

// sizeMask returns the value bits of an access of the given size.
func sizeMask(size Size) uint32 {
	switch size {
	case SizeByte:
		return 0xFF
	case SizeHalf:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

// laneShift returns the bit position, within its aligned word, of a
// size-wide value at addr.
func laneShift(addr uint32, size Size, endian Endianness) uint32 {
	off := addr & 3 &^ (uint32(size) - 1)
	if endian == BigEndian {
		off = 4 - uint32(size) - off
	}
	return off * 8
}

// leftShift is the LWL/SWL byte-lane shift for the low address bits.
func leftShift(vaddr uint32, endian Endianness) uint32 {
	off := vaddr & 3
	if endian == LittleEndian {
		off ^= 3
	}
	return off * 8
}

// rightShift is the LWR/SWR byte-lane shift for the low address bits.
func rightShift(vaddr uint32, endian Endianness) uint32 {
	off := vaddr & 3
	if endian == BigEndian {
		off ^= 3
	}
	return off * 8
}

// mergeLWL merges the aligned word mem into reg the way LWL at vaddr does.
func mergeLWL(reg, mem, vaddr uint32, endian Endianness) uint32 {
	shift := leftShift(vaddr, endian)
	return (reg &^ (0xFFFFFFFF << shift)) | (mem << shift)
}

// mergeLWR merges the aligned word mem into reg the way LWR at vaddr does.
func mergeLWR(reg, mem, vaddr uint32, endian Endianness) uint32 {
	shift := rightShift(vaddr, endian)
	return (reg &^ (0xFFFFFFFF >> shift)) | (mem >> shift)
}

// swlData returns the word value and byte mask SWL at vaddr stores.
func swlData(reg, vaddr uint32, endian Endianness) (uint32, uint32) {
	shift := leftShift(vaddr, endian)
	return reg >> shift, 0xFFFFFFFF >> shift
}

// swrData returns the word value and byte mask SWR at vaddr stores.
func swrData(reg, vaddr uint32, endian Endianness) (uint32, uint32) {
	shift := rightShift(vaddr, endian)
	return reg << shift, 0xFFFFFFFF << shift
}

// dataCache returns the cache serving data accesses. Swapped caches
// exchange the instruction and data roles.
func (c *CPU) dataCache() *cache.Cache {
	if c.cop[0].Data[Cop0Status]&SRSwC != 0 {
		return c.icache
	}
	return c.dcache
}

// instCache returns the cache serving instruction fetches.
func (c *CPU) instCache() *cache.Cache {
	if c.cop[0].Data[Cop0Status]&SRSwC != 0 {
		return c.dcache
	}
	return c.icache
}

func (c *CPU) isolated() bool {
	return c.cop[0].Data[Cop0Status]&SRIsC != 0
}

// busError reports a failed bus transaction as a bus error exception.
func (c *CPU) busError(code ExceptionCode, phys uint32, err error) {
	c.logger.WithFields(logrus.Fields{
		"phys":  phys,
		"error": err,
	}).Debug("bus error")
	c.raiseException(code, 0, false)
}

// load reads a naturally aligned value at vaddr.
func (c *CPU) load(vaddr uint32, size Size) (uint32, bool) {
	if vaddr&(uint32(size)-1) != 0 {
		c.addressError(vaddr, IntentLoad)
		return 0, false
	}
	return c.readData(vaddr, size)
}

// store writes a naturally aligned value at vaddr.
func (c *CPU) store(vaddr uint32, size Size, value uint32) bool {
	if vaddr&(uint32(size)-1) != 0 {
		c.addressError(vaddr, IntentStore)
		return false
	}
	mask := sizeMask(size)
	return c.writeData(vaddr, size, value&mask, mask)
}

// readData translates vaddr and reads from the bus or, when isolated, from
// the cache. Word accesses use the aligned physical address.
func (c *CPU) readData(vaddr uint32, size Size) (uint32, bool) {
	phys, cached, ok := c.translate(vaddr, IntentLoad)
	if !ok {
		return 0, false
	}
	if size == SizeWord {
		phys &^= 3
	}

	if c.isolated() {
		return c.readIsolated(phys, size), true
	}

	value, err := c.bus.Read(phys, size)
	if err != nil {
		c.busError(ExcDBE, phys, err)
		return 0, false
	}

	if cached {
		dc := c.dataCache()
		if r := dc.Read(phys &^ 3); !r.Hit && size == SizeWord {
			dc.Fill(phys, value)
		}
	}
	return value, true
}

// writeData translates vaddr and writes the masked value to the bus or,
// when isolated, to the cache.
func (c *CPU) writeData(vaddr uint32, size Size, value, mask uint32) bool {
	phys, cached, ok := c.translate(vaddr, IntentStore)
	if !ok {
		return false
	}
	if size == SizeWord {
		phys &^= 3
	}

	if c.isolated() {
		c.writeIsolated(phys, size, value, mask)
		return true
	}

	if err := c.bus.Write(phys, size, value, mask); err != nil {
		c.busError(ExcDBE, phys, err)
		return false
	}

	if cached {
		shift := laneShift(phys, size, c.endian)
		c.dataCache().Write(phys&^3, value<<shift, mask<<shift)
	}
	return true
}

// readIsolated reads from the isolated cache. A miss sets Status.CM.
func (c *CPU) readIsolated(phys uint32, size Size) uint32 {
	r := c.dataCache().Read(phys &^ 3)
	if r.Hit {
		c.cop[0].Data[Cop0Status] &^= SRCM
	} else {
		c.cop[0].Data[Cop0Status] |= SRCM
	}
	return (r.Data >> laneShift(phys, size, c.endian)) & sizeMask(size)
}

// writeIsolated stores into the isolated cache. A full word store makes the
// line valid; any narrower store invalidates it.
func (c *CPU) writeIsolated(phys uint32, size Size, value, mask uint32) {
	dc := c.dataCache()
	if size == SizeWord && mask == 0xFFFFFFFF {
		dc.Fill(phys&^3, value)
		return
	}
	dc.Invalidate(phys &^ 3)
}

func effectiveAddress(regs *RegFile, inst *insts.Instruction) uint32 {
	return regs.ReadReg(inst.Rs) + uint32(inst.SImm)
}

// executeLoad handles loads into general-purpose registers.
func (c *CPU) executeLoad(inst *insts.Instruction) {
	vaddr := effectiveAddress(&c.regs, inst)

	switch inst.Op {
	case insts.OpLB:
		if v, ok := c.load(vaddr, SizeByte); ok {
			c.regs.WriteReg(inst.Rt, uint32(int32(int8(v))))
		}
	case insts.OpLBU:
		if v, ok := c.load(vaddr, SizeByte); ok {
			c.regs.WriteReg(inst.Rt, v&0xFF)
		}
	case insts.OpLH:
		if v, ok := c.load(vaddr, SizeHalf); ok {
			c.regs.WriteReg(inst.Rt, uint32(int32(int16(v))))
		}
	case insts.OpLHU:
		if v, ok := c.load(vaddr, SizeHalf); ok {
			c.regs.WriteReg(inst.Rt, v&0xFFFF)
		}
	case insts.OpLW:
		if v, ok := c.load(vaddr, SizeWord); ok {
			c.regs.WriteReg(inst.Rt, v)
		}
	case insts.OpLWL:
		if v, ok := c.readData(vaddr, SizeWord); ok {
			c.regs.WriteReg(inst.Rt, mergeLWL(c.regs.ReadReg(inst.Rt), v, vaddr, c.endian))
		}
	case insts.OpLWR:
		if v, ok := c.readData(vaddr, SizeWord); ok {
			c.regs.WriteReg(inst.Rt, mergeLWR(c.regs.ReadReg(inst.Rt), v, vaddr, c.endian))
		}
	}
}

// executeStore handles stores from general-purpose registers.
func (c *CPU) executeStore(inst *insts.Instruction) {
	vaddr := effectiveAddress(&c.regs, inst)
	rt := c.regs.ReadReg(inst.Rt)

	switch inst.Op {
	case insts.OpSB:
		c.store(vaddr, SizeByte, rt)
	case insts.OpSH:
		c.store(vaddr, SizeHalf, rt)
	case insts.OpSW:
		c.store(vaddr, SizeWord, rt)
	case insts.OpSWL:
		value, mask := swlData(rt, vaddr, c.endian)
		c.writeData(vaddr, SizeWord, value, mask)
	case insts.OpSWR:
		value, mask := swrData(rt, vaddr, c.endian)
		c.writeData(vaddr, SizeWord, value, mask)
	}
}

// executeCopLoad handles LWCz. LWC0 is reserved.
func (c *CPU) executeCopLoad(inst *insts.Instruction) {
	if !c.checkCopUsable(inst.Cop) {
		return
	}
	if inst.Cop == 0 {
		c.raiseException(ExcRI, 0, false)
		return
	}

	if v, ok := c.load(effectiveAddress(&c.regs, inst), SizeWord); ok {
		c.writeCopData(inst.Cop, inst.Rt, v)
	}
}

// executeCopStore handles SWCz. SWC0 is reserved.
func (c *CPU) executeCopStore(inst *insts.Instruction) {
	if !c.checkCopUsable(inst.Cop) {
		return
	}
	if inst.Cop == 0 {
		c.raiseException(ExcRI, 0, false)
		return
	}

	c.store(effectiveAddress(&c.regs, inst), SizeWord, c.readCopData(inst.Cop, inst.Rt))
}
