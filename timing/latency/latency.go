// Package latency provides per-instruction cycle costs for the MIPS-I core.
//
// The costs drive the core's cycle budget accounting and can be configured
// via TimingConfig.
package latency

import (
	"github.com/fraido/mame/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the cost in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Format {
	case insts.FormatShift, insts.FormatALUReg, insts.FormatALUImm, insts.FormatHiLo:
		return t.config.ALULatency

	case insts.FormatBranch, insts.FormatJump, insts.FormatJumpReg:
		return t.config.BranchLatency

	case insts.FormatLoad, insts.FormatCopLoad:
		return t.config.LoadLatency

	case insts.FormatStore, insts.FormatCopStore:
		return t.config.StoreLatency

	case insts.FormatMulDiv:
		if inst.Op == insts.OpDIV || inst.Op == insts.OpDIVU {
			return t.config.DivideLatency
		}
		return t.config.MultiplyLatency

	case insts.FormatCop:
		return t.config.CoprocessorLatency

	case insts.FormatTrap:
		return t.config.TrapLatency

	default:
		return 1
	}
}

// ExceptionLatency returns the cost of a step that only enters an exception.
func (t *Table) ExceptionLatency() uint64 {
	return t.config.ExceptionLatency
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return t.IsLoadOp(inst) || t.IsStoreOp(inst)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Format == insts.FormatLoad || inst.Format == insts.FormatCopLoad
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Format == insts.FormatStore || inst.Format == insts.FormatCopStore
}

// IsBranchOp returns true if the instruction is a branch or jump.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Format {
	case insts.FormatBranch, insts.FormatJump, insts.FormatJumpReg:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
