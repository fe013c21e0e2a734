package emu

import (
	"github.com/sirupsen/logrus"
)

// Coprocessor 0 register indices. Some indices are shared between models
// with different register layouts.
const (
	Cop0Index    = 0
	Cop0Random   = 1
	Cop0EntryLo  = 2
	Cop0BusCtrl  = 2 // R3041 only
	Cop0Config   = 3 // R3041/R3071/R3081 only
	Cop0Context  = 4
	Cop0BadVAddr = 8
	Cop0Count    = 9 // R3041 only
	Cop0EntryHi  = 10
	Cop0PortSize = 10 // R3041 only
	Cop0Compare  = 11 // R3041 only
	Cop0Status   = 12
	Cop0Cause    = 13
	Cop0EPC      = 14
	Cop0PRId     = 15
)

// Status register bits.
const (
	SRIEc  uint32 = 0x00000001 // current interrupt enable
	SRKUc  uint32 = 0x00000002 // current user mode
	SRIEp  uint32 = 0x00000004 // previous interrupt enable
	SRKUp  uint32 = 0x00000008 // previous user mode
	SRIEo  uint32 = 0x00000010 // old interrupt enable
	SRKUo  uint32 = 0x00000020 // old user mode
	SRIM   uint32 = 0x0000FF00 // interrupt mask
	SRIsC  uint32 = 0x00010000 // isolate cache
	SRSwC  uint32 = 0x00020000 // swap caches
	SRPZ   uint32 = 0x00040000 // parity zero
	SRCM   uint32 = 0x00080000 // isolated cache miss
	SRPE   uint32 = 0x00100000 // parity error
	SRTS   uint32 = 0x00200000 // TLB shutdown
	SRBEV  uint32 = 0x00400000 // bootstrap exception vectors
	SRRE   uint32 = 0x02000000 // reverse endianness in user mode
	SRCU0  uint32 = 0x10000000 // coprocessor 0 usable
	SRCU1  uint32 = 0x20000000
	SRCU2  uint32 = 0x40000000
	SRCU3  uint32 = 0x80000000
	srMode uint32 = 0x0000003F // the three-deep KU/IE stack
)

// Cause register fields.
const (
	CauseExcCode uint32 = 0x0000007C
	CauseIPSW    uint32 = 0x00000300 // software interrupt pending bits
	CauseIPHW    uint32 = 0x0000FC00 // hardware interrupt pending bits
	CauseCE      uint32 = 0x30000000 // coprocessor number of a CpU fault
	CauseBD      uint32 = 0x80000000 // exception in branch delay slot
)

// EntryHi and EntryLo fields.
const (
	EntryHiVPN  uint32 = 0xFFFFF000 // virtual page number
	EntryHiASID uint32 = 0x00000FC0 // address space identifier
	EntryLoPFN  uint32 = 0xFFFFF000 // physical frame number
	EntryLoN    uint32 = 0x00000800 // non-cacheable
	EntryLoD    uint32 = 0x00000400 // dirty (writable)
	EntryLoV    uint32 = 0x00000200 // valid
	EntryLoG    uint32 = 0x00000100 // global

	entryHiMask uint32 = EntryHiVPN | EntryHiASID
	entryLoMask uint32 = 0xFFFFFF00
)

// Index, Context and Random fields.
const (
	IndexProbeFail uint32 = 0x80000000
	indexMask      uint32 = 0x00003F00
	contextPTEBase uint32 = 0xFFE00000
	contextBadVPN  uint32 = 0x001FFFFC
)

// COP0 operation function codes (bits [24:0] of a COP0 CO instruction).
const (
	cop0TLBR  = 0x01
	cop0TLBWI = 0x02
	cop0TLBWR = 0x06
	cop0TLBP  = 0x08
	cop0RFE   = 0x10
)

// Cop0Layout selects which model-specific registers coprocessor 0 exposes.
type Cop0Layout uint8

// Coprocessor 0 layouts.
const (
	// LayoutBase exposes BadVAddr, Status, Cause, EPC and PRId.
	LayoutBase Cop0Layout = iota
	// LayoutTLB adds Index, Random, EntryLo, Context and EntryHi.
	LayoutTLB
	// LayoutR3041 adds BusCtrl, Config, Count, PortSize and Compare.
	LayoutR3041
	// LayoutConfig adds Config.
	LayoutConfig
)

// cop0Names maps the architecturally named registers of a layout.
func (l Cop0Layout) cop0Names() map[int]string {
	names := map[int]string{
		Cop0BadVAddr: "badvaddr",
		Cop0Status:   "status",
		Cop0Cause:    "cause",
		Cop0EPC:      "epc",
		Cop0PRId:     "prid",
	}

	switch l {
	case LayoutTLB:
		names[Cop0Index] = "index"
		names[Cop0Random] = "random"
		names[Cop0EntryLo] = "entrylo"
		names[Cop0Context] = "context"
		names[Cop0EntryHi] = "entryhi"
	case LayoutR3041:
		names[Cop0BusCtrl] = "busctrl"
		names[Cop0Config] = "config"
		names[Cop0Count] = "count"
		names[Cop0PortSize] = "portsize"
		names[Cop0Compare] = "compare"
	case LayoutConfig:
		names[Cop0Config] = "config"
	}

	return names
}

// ReadCop0 returns the architectural value of a coprocessor 0 register,
// as MFC0 would observe it.
func (c *CPU) ReadCop0(index int) uint32 {
	index &= 0x1F
	bank := &c.cop[0]

	if index == Cop0Random && c.model.Layout == LayoutTLB {
		return c.random << 8
	}
	return bank.Data[index]
}

// WriteCop0 updates a coprocessor 0 register as MTC0 would, applying the
// model's read-only fields and write masks.
func (c *CPU) WriteCop0(index int, value uint32) {
	index &= 0x1F
	bank := &c.cop[0]

	if c.model.Layout == LayoutTLB {
		switch index {
		case Cop0Index:
			bank.Data[index] = (bank.Data[index] &^ indexMask) | (value & indexMask)
			return
		case Cop0Random:
			return
		case Cop0EntryLo:
			bank.Data[index] = value & entryLoMask
			return
		case Cop0Context:
			bank.Data[index] = (bank.Data[index] &^ contextPTEBase) | (value & contextPTEBase)
			return
		case Cop0EntryHi:
			bank.Data[index] = value & entryHiMask
			return
		}
	}

	switch index {
	case Cop0BadVAddr, Cop0PRId:
		// read-only
	case Cop0Status:
		delta := bank.Data[index] ^ value
		bank.Data[index] = value
		if delta&SRKUc != 0 {
			c.logger.WithField("user", value&SRKUc != 0).Debug("mode change")
		}
		c.updateInterrupts()
	case Cop0Cause:
		bank.Data[index] = (bank.Data[index] &^ CauseIPSW) | (value & CauseIPSW)
		c.updateInterrupts()
	default:
		bank.Data[index] = value
	}
}

// executeCop0 performs a COP0 CO operation. It returns false when the
// function is not defined, which the dispatcher reports as reserved.
func (c *CPU) executeCop0(function uint32) bool {
	switch function {
	case cop0TLBR, cop0TLBWI, cop0TLBWR, cop0TLBP:
		if c.tlb != nil {
			c.executeTLBOp(function)
		}
		return true

	case cop0RFE:
		sr := c.cop[0].Data[Cop0Status]
		c.cop[0].Data[Cop0Status] = (sr &^ 0xF) | ((sr >> 2) & 0xF)
		c.updateInterrupts()
		return true

	default:
		return false
	}
}

// executeTLBOp performs TLB maintenance on behalf of TLBR/TLBWI/TLBWR/TLBP.
func (c *CPU) executeTLBOp(function uint32) {
	bank := &c.cop[0]

	switch function {
	case cop0TLBR:
		index := int((bank.Data[Cop0Index] >> 8) & 0x3F)
		entry := c.tlb.Entry(index)
		bank.Data[Cop0EntryHi] = entry.Hi
		bank.Data[Cop0EntryLo] = entry.Lo

	case cop0TLBWI:
		index := int((bank.Data[Cop0Index] >> 8) & 0x3F)
		c.tlb.Write(index, bank.Data[Cop0EntryHi], bank.Data[Cop0EntryLo])
		c.logTLBWrite("tlbwi", index)

	case cop0TLBWR:
		index := int(c.random)
		c.tlb.Write(index, bank.Data[Cop0EntryHi], bank.Data[Cop0EntryLo])
		c.logTLBWrite("tlbwr", index)

	case cop0TLBP:
		index := c.tlb.Probe(bank.Data[Cop0EntryHi])
		if index < 0 {
			bank.Data[Cop0Index] = IndexProbeFail
		} else {
			bank.Data[Cop0Index] = uint32(index) << 8
		}
	}
}

func (c *CPU) logTLBWrite(op string, index int) {
	entry := c.tlb.Entry(index)
	c.logger.WithFields(logrus.Fields{
		"op":      op,
		"index":   index,
		"entryhi": entry.Hi,
		"entrylo": entry.Lo,
	}).Debug("tlb write")
}
