package emu

import (
	"github.com/fraido/mame/insts"
)

// BranchUnit evaluates MIPS-I branch conditions.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Taken reports whether the conditional branch inst is taken.
func (b *BranchUnit) Taken(inst *insts.Instruction) bool {
	rs := int32(b.regFile.ReadReg(inst.Rs))

	switch inst.Op {
	case insts.OpBEQ, insts.OpBEQL:
		return b.regFile.ReadReg(inst.Rs) == b.regFile.ReadReg(inst.Rt)
	case insts.OpBNE, insts.OpBNEL:
		return b.regFile.ReadReg(inst.Rs) != b.regFile.ReadReg(inst.Rt)
	case insts.OpBLEZ, insts.OpBLEZL:
		return rs <= 0
	case insts.OpBGTZ, insts.OpBGTZL:
		return rs > 0
	case insts.OpBLTZ, insts.OpBLTZL, insts.OpBLTZAL, insts.OpBLTZALL:
		return rs < 0
	case insts.OpBGEZ, insts.OpBGEZL, insts.OpBGEZAL, insts.OpBGEZALL:
		return rs >= 0
	default:
		return false
	}
}

// BranchTarget returns the target of a PC-relative branch at pc.
func BranchTarget(pc uint32, inst *insts.Instruction) uint32 {
	return pc + 4 + uint32(inst.SImm<<2)
}

// JumpTarget returns the target of J/JAL at pc: the jump index replaces the
// low 28 bits of the delay slot address.
func JumpTarget(pc uint32, inst *insts.Instruction) uint32 {
	return ((pc + 4) & 0xF0000000) | (inst.Target << 2)
}

// branch resolves a control transfer. A taken branch schedules target after
// the delay slot. A likely branch that is not taken nullifies the delay
// slot instead. Any delay slot that executes, taken or not, reports faults
// against the branch.
func (c *CPU) branch(taken bool, target uint32, likely bool) {
	switch {
	case taken:
		c.regs.NextPC = target
		c.delayPending = true
		c.stats.BranchesTaken++
	case likely:
		c.regs.SetPC(c.regs.NextPC)
		c.stats.Nullified++
	default:
		c.delayPending = true
	}
}

// executeBranch handles conditional branches, including the linking and
// likely REGIMM forms.
func (c *CPU) executeBranch(inst *insts.Instruction, pc uint32) {
	if inst.Likely && !c.branchLikely {
		c.raiseException(ExcRI, 0, false)
		return
	}

	taken := c.branchUnit.Taken(inst)
	if inst.Link {
		c.regs.WriteReg(31, pc+8)
	}
	c.branch(taken, BranchTarget(pc, inst), inst.Likely)
}

// executeJump handles J/JAL.
func (c *CPU) executeJump(inst *insts.Instruction, pc uint32) {
	if inst.Link {
		c.regs.WriteReg(31, pc+8)
	}
	c.branch(true, JumpTarget(pc, inst), false)
}

// executeJumpReg handles JR/JALR. The target is read before the link
// register is written.
func (c *CPU) executeJumpReg(inst *insts.Instruction, pc uint32) {
	target := c.regs.ReadReg(inst.Rs)
	if inst.Link {
		c.regs.WriteReg(inst.Rd, pc+8)
	}
	c.branch(true, target, false)
}
