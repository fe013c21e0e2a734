package emu

import (
	"github.com/fraido/mame/insts"
)

// CopBank is the generic register storage of one coprocessor.
type CopBank struct {
	Data [32]uint32
	Ctrl [32]uint32
}

// Coprocessor is a pluggable execution unit for coprocessors 1-3.
//
// The core handles register moves and LWCz/SWCz itself; a unit only sees
// the coprocessor-specific operations and supplies the BCzF/BCzT condition.
type Coprocessor interface {
	// Execute performs a COPz operation. function is bits [24:0] of the
	// instruction. It returns false for an undefined operation, which the
	// core reports as a reserved instruction.
	Execute(function uint32, bank *CopBank) bool

	// Condition returns the coprocessor condition input.
	Condition(bank *CopBank) bool
}

// copUsable reports whether coprocessor n may execute an instruction in the
// current mode.
func (c *CPU) copUsable(n uint8) bool {
	sr := c.cop[0].Data[Cop0Status]
	if n == 0 && sr&SRKUc == 0 {
		return true
	}
	return sr&(SRCU0<<n) != 0
}

// checkCopUsable raises coprocessor unusable when n may not be used.
func (c *CPU) checkCopUsable(n uint8) bool {
	if c.copUsable(n) {
		return true
	}
	c.raiseException(ExcCpU, uint32(n), false)
	return false
}

// readCopData returns data register reg of coprocessor n.
func (c *CPU) readCopData(n, reg uint8) uint32 {
	if n == 0 {
		return c.ReadCop0(int(reg))
	}
	return c.cop[n].Data[reg&0x1F]
}

// writeCopData sets data register reg of coprocessor n.
func (c *CPU) writeCopData(n, reg uint8, value uint32) {
	if n == 0 {
		c.WriteCop0(int(reg), value)
		return
	}
	c.cop[n].Data[reg&0x1F] = value
}

func (c *CPU) readCopCtrl(n, reg uint8) uint32 {
	if n == 1 {
		return c.readFPUControl(reg)
	}
	return c.cop[n].Ctrl[reg&0x1F]
}

func (c *CPU) writeCopCtrl(n, reg uint8, value uint32) {
	if n == 1 {
		c.writeFPUControl(reg, value)
		return
	}
	c.cop[n].Ctrl[reg&0x1F] = value
}

// copCondition returns the BCzF/BCzT condition of coprocessor n.
func (c *CPU) copCondition(n uint8) bool {
	if unit := c.units[n]; unit != nil {
		return unit.Condition(&c.cop[n])
	}
	if n == 1 && c.fpuRevision != 0 {
		return c.cop[1].Ctrl[fcrStatus]&fcrCondition != 0
	}
	return c.brcond[n]
}

// SetBranchCondition drives the condition input sampled by BCzF/BCzT for
// coprocessor n when no unit or FPU supplies one.
func (c *CPU) SetBranchCondition(n int, asserted bool) {
	if n < 0 || n > 3 {
		return
	}
	c.brcond[n] = asserted
}

// executeCop dispatches a COPz instruction after the usability check.
func (c *CPU) executeCop(inst *insts.Instruction, pc uint32) {
	n := inst.Cop
	if !c.checkCopUsable(n) {
		return
	}

	switch inst.Op {
	case insts.OpMFC:
		c.regs.WriteReg(inst.Rt, c.readCopData(n, inst.Rd))

	case insts.OpMTC:
		c.writeCopData(n, inst.Rd, c.regs.ReadReg(inst.Rt))

	case insts.OpCFC:
		if n == 0 {
			c.raiseException(ExcRI, 0, false)
			return
		}
		c.regs.WriteReg(inst.Rt, c.readCopCtrl(n, inst.Rd))

	case insts.OpCTC:
		if n == 0 {
			c.raiseException(ExcRI, 0, false)
			return
		}
		c.writeCopCtrl(n, inst.Rd, c.regs.ReadReg(inst.Rt))

	case insts.OpBCF, insts.OpBCT:
		taken := c.copCondition(n) == (inst.Op == insts.OpBCT)
		c.branch(taken, BranchTarget(pc, inst), false)

	case insts.OpCOP:
		c.executeCopOp(n, inst.CopFunc)

	default:
		c.raiseException(ExcRI, 0, false)
	}
}

func (c *CPU) executeCopOp(n uint8, function uint32) {
	if n == 0 {
		if !c.executeCop0(function) {
			c.raiseException(ExcRI, 0, false)
		}
		return
	}

	unit := c.units[n]
	if unit == nil {
		// No unit attached: the operation has no architectural effect.
		return
	}
	if !unit.Execute(function, &c.cop[n]) {
		c.raiseException(ExcRI, 0, false)
	}
}
