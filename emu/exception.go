package emu

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ExceptionCode is the value the core places in Cause.ExcCode.
type ExceptionCode uint32

// Exception codes.
const (
	ExcInt  ExceptionCode = 0  // interrupt
	ExcMod  ExceptionCode = 1  // TLB modification
	ExcTLBL ExceptionCode = 2  // TLB miss or invalid on load or fetch
	ExcTLBS ExceptionCode = 3  // TLB miss or invalid on store
	ExcAdEL ExceptionCode = 4  // address error on load or fetch
	ExcAdES ExceptionCode = 5  // address error on store
	ExcIBE  ExceptionCode = 6  // bus error on fetch
	ExcDBE  ExceptionCode = 7  // bus error on data access
	ExcSys  ExceptionCode = 8  // syscall
	ExcBp   ExceptionCode = 9  // breakpoint
	ExcRI   ExceptionCode = 10 // reserved instruction
	ExcCpU  ExceptionCode = 11 // coprocessor unusable
	ExcOv   ExceptionCode = 12 // arithmetic overflow
)

var exceptionNames = [...]string{
	ExcInt:  "Int",
	ExcMod:  "Mod",
	ExcTLBL: "TLBL",
	ExcTLBS: "TLBS",
	ExcAdEL: "AdEL",
	ExcAdES: "AdES",
	ExcIBE:  "IBE",
	ExcDBE:  "DBE",
	ExcSys:  "Sys",
	ExcBp:   "Bp",
	ExcRI:   "RI",
	ExcCpU:  "CpU",
	ExcOv:   "Ov",
}

func (c ExceptionCode) String() string {
	if int(c) < len(exceptionNames) {
		return exceptionNames[c]
	}
	return fmt.Sprintf("Exc%d", uint32(c))
}

// Exception vector bases and offsets.
const (
	vectorBase    uint32 = 0x80000000
	vectorBaseBEV uint32 = 0xBFC00100
	vectorGeneral uint32 = 0x80

	// ResetVector is the address execution starts from after reset.
	ResetVector uint32 = 0xBFC00000
)

// Interrupt lines.
const (
	// HardwareLines is the number of external interrupt inputs.
	HardwareLines = 6
	// SoftwareLines is the number of software interrupt bits in Cause.
	SoftwareLines = 2
)

// raiseException enters the exception handler for code. ce is the
// coprocessor number reported for coprocessor unusable faults. refill
// selects the kuseg TLB refill vector.
func (c *CPU) raiseException(code ExceptionCode, ce uint32, refill bool) {
	bank := &c.cop[0]

	epc := c.regs.PrevPC
	cause := bank.Data[Cop0Cause] &^ (CauseBD | CauseCE | CauseExcCode)
	if c.inDelaySlot {
		epc -= 4
		cause |= CauseBD
	}
	cause |= (ce << 28) & CauseCE
	cause |= (uint32(code) << 2) & CauseExcCode

	sr := bank.Data[Cop0Status]
	bank.Data[Cop0Status] = (sr &^ srMode) | ((sr << 2) & (srMode &^ (SRIEc | SRKUc)))
	bank.Data[Cop0Cause] = cause
	bank.Data[Cop0EPC] = epc

	target := vectorBase
	if sr&SRBEV != 0 {
		target = vectorBaseBEV
	}
	if !refill {
		target += vectorGeneral
	}

	c.regs.SetPC(target)
	c.delayPending = false
	c.excepted = true
	c.excCode = code
	c.stats.Exceptions++

	c.logger.WithFields(logrus.Fields{
		"code":     code.String(),
		"epc":      fmt.Sprintf("0x%08x", epc),
		"badvaddr": fmt.Sprintf("0x%08x", bank.Data[Cop0BadVAddr]),
		"bd":       c.inDelaySlot,
		"vector":   fmt.Sprintf("0x%08x", target),
	}).Debug("exception")
}

// addressError reports a misaligned or privileged access to vaddr.
func (c *CPU) addressError(vaddr uint32, intent Intent) {
	c.cop[0].Data[Cop0BadVAddr] = vaddr
	c.raiseException(addressErrorCode(intent), 0, false)
}

// SetLine drives hardware interrupt input line (0-5). A change of line
// state ends the current Run slice at the next instruction boundary.
func (c *CPU) SetLine(line int, asserted bool) {
	if line < 0 || line >= HardwareLines {
		return
	}
	c.setCauseBit(CauseIPHW&(0x400<<uint(line)), asserted)
}

// SetSoftwareLine drives software interrupt bit line (0-1) of Cause, as
// MTC0 to Cause would.
func (c *CPU) SetSoftwareLine(line int, asserted bool) {
	if line < 0 || line >= SoftwareLines {
		return
	}
	c.setCauseBit(CauseIPSW&(0x100<<uint(line)), asserted)
}

func (c *CPU) setCauseBit(bit uint32, asserted bool) {
	bank := &c.cop[0]
	old := bank.Data[Cop0Cause]
	if asserted {
		bank.Data[Cop0Cause] |= bit
	} else {
		bank.Data[Cop0Cause] &^= bit
	}

	if bank.Data[Cop0Cause] != old {
		c.yield = true
	}
	c.updateInterrupts()
}

// updateInterrupts recomputes whether an interrupt is pending and enabled.
func (c *CPU) updateInterrupts() bool {
	bank := &c.cop[0]
	sr := bank.Data[Cop0Status]
	c.irqPending = sr&SRIEc != 0 && bank.Data[Cop0Cause]&sr&SRIM != 0
	return c.irqPending
}

// InterruptPending reports whether an interrupt will be taken at the next
// instruction boundary.
func (c *CPU) InterruptPending() bool {
	return c.updateInterrupts()
}
