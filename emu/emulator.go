package emu

import (
	"github.com/fraido/mame/insts"
	"github.com/fraido/mame/timing/cache"
	"github.com/fraido/mame/timing/latency"
	"github.com/sirupsen/logrus"
)

// StepResult represents the result of executing a single step.
type StepResult struct {
	// Cycles is the cost of the step.
	Cycles uint64

	// Exception is true if the step entered an exception handler.
	Exception bool

	// Code is the exception code when Exception is true.
	Code ExceptionCode
}

// Stats counts events since the core was created.
type Stats struct {
	Instructions  uint64
	Cycles        uint64
	Exceptions    uint64
	Interrupts    uint64
	Loads         uint64
	Stores        uint64
	Branches      uint64
	BranchesTaken uint64
	Nullified     uint64
}

// CPU is one MIPS-I core. It is not safe for concurrent use; the host
// drives it from a single scheduler.
type CPU struct {
	model  Model
	bus    Bus
	endian Endianness
	logger *logrus.Entry

	regs        RegFile
	cop         [4]CopBank
	units       [4]Coprocessor
	brcond      [4]bool
	fpuRevision uint32
	tlb         *TLB
	random      uint32

	decoder    *insts.Decoder
	alu        *ALU
	branchUnit *BranchUnit
	latency    *latency.Table
	icache     *cache.Cache
	dcache     *cache.Cache

	branchLikely  bool
	tlbDiagnostic func(vaddr uint32, matches int)

	// Construction-time settings consumed by NewCPU.
	baseLogger *logrus.Logger
	timing     *latency.TimingConfig
	icacheSize int
	dcacheSize int

	// delayPending is set when the instruction at PC is a delay slot.
	delayPending bool
	inDelaySlot  bool
	irqPending   bool
	excepted     bool
	excCode      ExceptionCode
	yield        bool

	stats Stats
}

// CPUOption is a functional option for configuring the CPU.
type CPUOption func(*CPU)

// WithLogger sets the logger. Entries carry a "model" field.
func WithLogger(logger *logrus.Logger) CPUOption {
	return func(c *CPU) {
		c.baseLogger = logger
	}
}

// WithEndianness sets the byte order of the core. It defaults to the byte
// order of the bus when the bus reports one, else big-endian.
func WithEndianness(endian Endianness) CPUOption {
	return func(c *CPU) {
		c.endian = endian
	}
}

// WithFPU attaches a floating-point unit reporting revision in FCR0.
func WithFPU(revision uint32) CPUOption {
	return func(c *CPU) {
		c.fpuRevision = revision
	}
}

// WithCoprocessor attaches an execution unit to coprocessor n (1-3).
func WithCoprocessor(n int, unit Coprocessor) CPUOption {
	return func(c *CPU) {
		if n >= 1 && n <= 3 {
			c.units[n] = unit
		}
	}
}

// WithTiming sets the cycle-cost table.
func WithTiming(config *latency.TimingConfig) CPUOption {
	return func(c *CPU) {
		c.timing = config
	}
}

// WithCacheSizes overrides the model's cache sizes in bytes. A negative
// size keeps the model's size; zero disables the cache.
func WithCacheSizes(icache, dcache int) CPUOption {
	return func(c *CPU) {
		if icache >= 0 {
			c.icacheSize = icache
		}
		if dcache >= 0 {
			c.dcacheSize = dcache
		}
	}
}

// WithBranchLikely enables or disables the branch-likely encodings.
func WithBranchLikely(enabled bool) CPUOption {
	return func(c *CPU) {
		c.branchLikely = enabled
	}
}

// WithTLBDiagnostic installs a hook called whenever a translation finds
// more than one matching TLB entry.
func WithTLBDiagnostic(hook func(vaddr uint32, matches int)) CPUOption {
	return func(c *CPU) {
		c.tlbDiagnostic = hook
	}
}

type endianReporter interface {
	Endianness() Endianness
}

// NewCPU creates a core of the given model attached to bus, in the reset
// state.
func NewCPU(model Model, bus Bus, opts ...CPUOption) *CPU {
	c := &CPU{
		model:        model,
		bus:          bus,
		decoder:      insts.NewDecoder(),
		branchLikely: model.BranchLikely,
		timing:       model.Timing,
		icacheSize:   model.ICacheSize,
		dcacheSize:   model.DCacheSize,
		baseLogger:   logrus.StandardLogger(),
	}
	if r, ok := bus.(endianReporter); ok {
		c.endian = r.Endianness()
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.baseLogger.WithField("model", model.Name)
	c.alu = NewALU(&c.regs)
	c.branchUnit = NewBranchUnit(&c.regs)
	if c.timing != nil {
		c.latency = latency.NewTableWithConfig(c.timing)
	} else {
		c.latency = latency.NewTable()
	}
	c.icache = cache.New(cache.DefaultConfig(c.icacheSize))
	c.dcache = cache.New(cache.DefaultConfig(c.dcacheSize))
	if model.HasTLB {
		c.tlb = NewTLB()
	}

	c.Reset()
	return c
}

// Model returns the model descriptor of the core.
func (c *CPU) Model() Model {
	return c.model
}

// Endianness returns the byte order of the core.
func (c *CPU) Endianness() Endianness {
	return c.endian
}

// RegFile returns the core's register file.
func (c *CPU) RegFile() *RegFile {
	return &c.regs
}

// CopBank returns the register bank of coprocessor n.
func (c *CPU) CopBank(n int) *CopBank {
	return &c.cop[n&3]
}

// TLB returns the core's TLB, or nil for models without one.
func (c *CPU) TLB() *TLB {
	return c.tlb
}

// ICache returns the instruction cache.
func (c *CPU) ICache() *cache.Cache {
	return c.icache
}

// DCache returns the data cache.
func (c *CPU) DCache() *cache.Cache {
	return c.dcache
}

// InDelaySlot reports whether the instruction at PC is the delay slot of a
// branch that has just executed.
func (c *CPU) InDelaySlot() bool {
	return c.delayPending
}

// Stats returns the core's event counters.
func (c *CPU) Stats() Stats {
	return c.stats
}

// Reset puts the core in its reset state: PC at the reset vector, kernel
// mode with interrupts disabled and bootstrap vectors selected. General
// registers, TLB contents and asserted hardware lines are kept.
func (c *CPU) Reset() {
	c.regs.SetPC(ResetVector)
	c.regs.PrevPC = ResetVector
	c.delayPending = false
	c.inDelaySlot = false
	c.excepted = false

	bank := &c.cop[0]
	bank.Data[Cop0Status] = SRBEV
	bank.Data[Cop0Cause] &= CauseIPHW
	bank.Data[Cop0PRId] = c.model.PRId
	c.random = TLBEntries - 1

	c.icache.Reset()
	c.dcache.Reset()

	c.updateInterrupts()
	c.yield = true

	c.logger.Debug("reset")
}

// Run executes instructions until at least budget cycles are consumed or an
// interrupt line changes or the core is reset. It returns the cycles used.
func (c *CPU) Run(budget uint64) uint64 {
	c.yield = false

	var used uint64
	for used < budget {
		used += c.Step().Cycles
		if c.yield {
			break
		}
	}
	return used
}

// Step executes one instruction, or takes a pending interrupt instead.
func (c *CPU) Step() StepResult {
	pc := c.regs.PC
	c.regs.PrevPC = pc
	c.inDelaySlot = c.delayPending
	c.delayPending = false
	c.excepted = false

	var cost uint64
	if c.updateInterrupts() {
		c.stats.Interrupts++
		c.raiseException(ExcInt, 0, false)
		cost = c.latency.ExceptionLatency()
	} else {
		cost = c.execute(pc)
	}

	c.stats.Cycles += cost
	c.tick(cost)

	return StepResult{
		Cycles:    cost,
		Exception: c.excepted,
		Code:      c.excCode,
	}
}

// tick advances the free-running COP0 counters by cycles.
func (c *CPU) tick(cycles uint64) {
	if c.tlb != nil {
		span := uint64(TLBEntries - tlbWired)
		r := uint64(c.random - tlbWired)
		r = (r + span - cycles%span) % span
		c.random = uint32(r) + tlbWired
	}
	if c.model.Layout == LayoutR3041 {
		c.cop[0].Data[Cop0Count] += uint32(cycles)
	}
}

// fetch reads the instruction word at pc.
func (c *CPU) fetch(pc uint32) (uint32, bool) {
	if pc&3 != 0 {
		c.addressError(pc, IntentFetch)
		return 0, false
	}

	phys, cached, ok := c.translate(pc, IntentFetch)
	if !ok {
		return 0, false
	}

	word, err := c.bus.Fetch(phys)
	if err != nil {
		c.busError(ExcIBE, phys, err)
		return 0, false
	}

	if cached {
		ic := c.instCache()
		if r := ic.Read(phys); !r.Hit {
			ic.Fill(phys, word)
		}
	}
	return word, true
}

// execute fetches, decodes and executes the instruction at pc and returns
// its cost.
func (c *CPU) execute(pc uint32) uint64 {
	word, ok := c.fetch(pc)
	if !ok {
		return c.latency.ExceptionLatency()
	}

	inst := c.decoder.Decode(word)

	// Advance to the sequential successor; control transfers override it.
	c.regs.SetPC(c.regs.NextPC)

	c.dispatch(inst, pc)

	if !c.excepted {
		c.stats.Instructions++
		switch {
		case c.latency.IsLoadOp(inst):
			c.stats.Loads++
		case c.latency.IsStoreOp(inst):
			c.stats.Stores++
		case c.latency.IsBranchOp(inst):
			c.stats.Branches++
		}
	}

	return c.latency.GetLatency(inst)
}

// dispatch executes a decoded instruction.
func (c *CPU) dispatch(inst *insts.Instruction, pc uint32) {
	switch inst.Format {
	case insts.FormatShift:
		c.executeShift(inst)
	case insts.FormatALUReg:
		c.executeALUReg(inst)
	case insts.FormatALUImm:
		c.executeALUImm(inst)
	case insts.FormatHiLo:
		c.executeHiLo(inst)
	case insts.FormatMulDiv:
		c.executeMulDiv(inst)
	case insts.FormatTrap:
		if inst.Op == insts.OpSYSCALL {
			c.raiseException(ExcSys, 0, false)
		} else {
			c.raiseException(ExcBp, 0, false)
		}
	case insts.FormatJump:
		c.executeJump(inst, pc)
	case insts.FormatJumpReg:
		c.executeJumpReg(inst, pc)
	case insts.FormatBranch:
		c.executeBranch(inst, pc)
	case insts.FormatLoad:
		c.executeLoad(inst)
	case insts.FormatStore:
		c.executeStore(inst)
	case insts.FormatCop:
		c.executeCop(inst, pc)
	case insts.FormatCopLoad:
		c.executeCopLoad(inst)
	case insts.FormatCopStore:
		c.executeCopStore(inst)
	default:
		c.logger.WithFields(logrus.Fields{
			"pc":   pc,
			"word": inst.Word,
		}).Debug("reserved instruction")
		c.raiseException(ExcRI, 0, false)
	}
}

func (c *CPU) executeShift(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpSLL:
		c.alu.SLL(inst.Rd, inst.Rt, inst.Shamt)
	case insts.OpSRL:
		c.alu.SRL(inst.Rd, inst.Rt, inst.Shamt)
	case insts.OpSRA:
		c.alu.SRA(inst.Rd, inst.Rt, inst.Shamt)
	case insts.OpSLLV:
		c.alu.SLLV(inst.Rd, inst.Rt, inst.Rs)
	case insts.OpSRLV:
		c.alu.SRLV(inst.Rd, inst.Rt, inst.Rs)
	case insts.OpSRAV:
		c.alu.SRAV(inst.Rd, inst.Rt, inst.Rs)
	}
}

func (c *CPU) executeALUReg(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpADD:
		if !c.alu.ADD(inst.Rd, inst.Rs, inst.Rt) {
			c.raiseException(ExcOv, 0, false)
		}
	case insts.OpADDU:
		c.alu.ADDU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSUB:
		if !c.alu.SUB(inst.Rd, inst.Rs, inst.Rt) {
			c.raiseException(ExcOv, 0, false)
		}
	case insts.OpSUBU:
		c.alu.SUBU(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpAND:
		c.alu.AND(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpOR:
		c.alu.OR(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpXOR:
		c.alu.XOR(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpNOR:
		c.alu.NOR(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSLT:
		c.alu.SLT(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSLTU:
		c.alu.SLTU(inst.Rd, inst.Rs, inst.Rt)
	}
}

func (c *CPU) executeALUImm(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpADDI:
		if !c.alu.ADDI(inst.Rt, inst.Rs, inst.SImm) {
			c.raiseException(ExcOv, 0, false)
		}
	case insts.OpADDIU:
		c.alu.ADDIU(inst.Rt, inst.Rs, inst.SImm)
	case insts.OpSLTI:
		c.alu.SLTI(inst.Rt, inst.Rs, inst.SImm)
	case insts.OpSLTIU:
		c.alu.SLTIU(inst.Rt, inst.Rs, inst.SImm)
	case insts.OpANDI:
		c.alu.ANDI(inst.Rt, inst.Rs, inst.Imm)
	case insts.OpORI:
		c.alu.ORI(inst.Rt, inst.Rs, inst.Imm)
	case insts.OpXORI:
		c.alu.XORI(inst.Rt, inst.Rs, inst.Imm)
	case insts.OpLUI:
		c.alu.LUI(inst.Rt, inst.Imm)
	}
}

func (c *CPU) executeHiLo(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpMFHI:
		c.regs.WriteReg(inst.Rd, c.regs.HI)
	case insts.OpMTHI:
		c.regs.HI = c.regs.ReadReg(inst.Rs)
	case insts.OpMFLO:
		c.regs.WriteReg(inst.Rd, c.regs.LO)
	case insts.OpMTLO:
		c.regs.LO = c.regs.ReadReg(inst.Rs)
	}
}

func (c *CPU) executeMulDiv(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpMULT:
		c.alu.MULT(inst.Rs, inst.Rt)
	case insts.OpMULTU:
		c.alu.MULTU(inst.Rs, inst.Rt)
	case insts.OpDIV:
		c.alu.DIV(inst.Rs, inst.Rt)
	case insts.OpDIVU:
		c.alu.DIVU(inst.Rs, inst.Rt)
	}
}

func (c *CPU) userMode() bool {
	return c.cop[0].Data[Cop0Status]&SRKUc != 0
}
