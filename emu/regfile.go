// Package emu provides functional MIPS-I emulation.
package emu

// RegFile represents the MIPS-I integer register file.
// It contains 32 general-purpose registers, the HI/LO multiply/divide
// result pair and the program counters that implement the delay slot.
type RegFile struct {
	// R holds general-purpose registers $0-$31.
	// R[0] is hardwired to zero on read; writes to it are discarded.
	R [32]uint32

	// HI and LO hold multiply/divide results.
	HI uint32
	LO uint32

	// PC is the address of the instruction about to execute.
	PC uint32

	// NextPC is the address that executes after PC. It is PC+4 unless a
	// branch or jump in the previous step scheduled its target.
	NextPC uint32

	// PrevPC is the address of the most recently started instruction.
	PrevPC uint32
}

// ReadReg reads a register value. Register 0 returns 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
}

// SetPC points execution at pc with a sequential successor.
func (r *RegFile) SetPC(pc uint32) {
	r.PC = pc
	r.NextPC = pc + 4
}
