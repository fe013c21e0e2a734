package emu

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownRegister is returned when a register name is not recognized.
var ErrUnknownRegister = errors.New("unknown register")

// RegisterInfo describes one register for debuggers.
type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint32
	Group    string // "gpr", "special", "cop0" or "fpu"
}

var gprNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// gprIndex resolves an ABI name ("sp"), a numeric name ("r29") or either
// with a "$" prefix.
func gprIndex(name string) (int, bool) {
	name = strings.TrimPrefix(name, "$")
	for i, n := range gprNames {
		if n == name {
			return i, true
		}
	}
	if name == "s8" {
		return 30, true
	}

	num := strings.TrimPrefix(name, "r")
	i, err := strconv.Atoi(num)
	if err != nil || i < 0 || i > 31 {
		return 0, false
	}
	return i, true
}

// cop0Index resolves a COP0 register name valid for the core's model.
func (c *CPU) cop0Index(name string) (int, bool) {
	for index, n := range c.model.Layout.cop0Names() {
		if n == name {
			return index, true
		}
	}
	return 0, false
}

// Registers lists the general, special, coprocessor 0 and (when attached)
// FPU control registers.
func (c *CPU) Registers() []RegisterInfo {
	regs := make([]RegisterInfo, 0, 48)

	for i, name := range gprNames {
		regs = append(regs, RegisterInfo{
			Name: name, BitWidth: 32, Value: c.regs.ReadReg(uint8(i)), Group: "gpr",
		})
	}

	regs = append(regs,
		RegisterInfo{Name: "hi", BitWidth: 32, Value: c.regs.HI, Group: "special"},
		RegisterInfo{Name: "lo", BitWidth: 32, Value: c.regs.LO, Group: "special"},
		RegisterInfo{Name: "pc", BitWidth: 32, Value: c.regs.PC, Group: "special"},
	)

	names := c.model.Layout.cop0Names()
	indices := make([]int, 0, len(names))
	for index := range names {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	for _, index := range indices {
		regs = append(regs, RegisterInfo{
			Name: names[index], BitWidth: 32, Value: c.ReadCop0(index), Group: "cop0",
		})
	}

	if c.HasFPU() {
		regs = append(regs,
			RegisterInfo{Name: "fcr0", BitWidth: 32, Value: c.readFPUControl(fcrRevision), Group: "fpu"},
			RegisterInfo{Name: "fcr31", BitWidth: 32, Value: c.readFPUControl(fcrStatus), Group: "fpu"},
		)
	}

	return regs
}

// Register returns the value of the named register.
func (c *CPU) Register(name string) (uint32, error) {
	name = strings.ToLower(name)

	switch name {
	case "hi":
		return c.regs.HI, nil
	case "lo":
		return c.regs.LO, nil
	case "pc":
		return c.regs.PC, nil
	case "fcr0":
		return c.readFPUControl(fcrRevision), nil
	case "fcr31":
		return c.readFPUControl(fcrStatus), nil
	}

	if i, ok := gprIndex(name); ok {
		return c.regs.ReadReg(uint8(i)), nil
	}
	if index, ok := c.cop0Index(name); ok {
		return c.ReadCop0(index), nil
	}
	return 0, errors.Wrapf(ErrUnknownRegister, "%q", name)
}

// SetRegister sets the named register. COP0 registers are written raw,
// bypassing the write masks MTC0 applies, so a debugger can restore any
// snapshot. Setting pc discards a pending delay slot.
func (c *CPU) SetRegister(name string, value uint32) error {
	name = strings.ToLower(name)

	switch name {
	case "hi":
		c.regs.HI = value
		return nil
	case "lo":
		c.regs.LO = value
		return nil
	case "pc":
		c.regs.SetPC(value)
		c.delayPending = false
		return nil
	case "fcr31":
		c.writeFPUControl(fcrStatus, value)
		return nil
	}

	if i, ok := gprIndex(name); ok {
		c.regs.WriteReg(uint8(i), value)
		return nil
	}

	if index, ok := c.cop0Index(name); ok {
		if index == Cop0Random && c.tlb != nil {
			c.random = max((value>>8)&(TLBEntries-1), tlbWired)
		} else {
			c.cop[0].Data[index] = value
		}
		c.updateInterrupts()
		return nil
	}

	return errors.Wrapf(ErrUnknownRegister, "%q", name)
}

// TLBEntry returns TLB slot index for inspection.
func (c *CPU) TLBEntry(index int) (TLBEntry, error) {
	if c.tlb == nil {
		return TLBEntry{}, errors.Errorf("model %s has no tlb", c.model.Name)
	}
	if index < 0 || index >= TLBEntries {
		return TLBEntry{}, errors.Errorf("tlb index %d out of range", index)
	}
	return c.tlb.Entry(index), nil
}

// CopRegister returns data (ctrl false) or control register index of
// coprocessor n, as MFCz/CFCz would read it.
func (c *CPU) CopRegister(n int, index int, ctrl bool) uint32 {
	cop := uint8(n & 3)
	if ctrl {
		return c.readCopCtrl(cop, uint8(index))
	}
	return c.readCopData(cop, uint8(index))
}

// SetCopRegister writes data (ctrl false) or control register index of
// coprocessor n, as MTCz/CTCz would.
func (c *CPU) SetCopRegister(n int, index int, ctrl bool, value uint32) {
	cop := uint8(n & 3)
	if ctrl {
		c.writeCopCtrl(cop, uint8(index), value)
		return
	}
	c.writeCopData(cop, uint8(index), value)
}

// String summarizes the core state on one line.
func (c *CPU) String() string {
	return fmt.Sprintf("%s pc=%08x sr=%08x cause=%08x epc=%08x",
		c.model.Name, c.regs.PC,
		c.cop[0].Data[Cop0Status], c.cop[0].Data[Cop0Cause], c.cop[0].Data[Cop0EPC])
}
