package emu

// FPU control register indices and fields.
const (
	fcrRevision = 0
	fcrStatus   = 31

	fcrCondition uint32 = 0x00800000
)

// readFPUControl returns FPU control register reg. FCR0 reports the
// revision of the attached FPU, or zero when none is attached.
func (c *CPU) readFPUControl(reg uint8) uint32 {
	reg &= 0x1F
	if reg == fcrRevision {
		return c.fpuRevision
	}
	return c.cop[1].Ctrl[reg]
}

func (c *CPU) writeFPUControl(reg uint8, value uint32) {
	reg &= 0x1F
	if reg == fcrRevision {
		return
	}
	c.cop[1].Ctrl[reg] = value
}

// HasFPU reports whether a floating-point unit is attached.
func (c *CPU) HasFPU() bool {
	return c.fpuRevision != 0
}
