package core_test

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fraido/mame/emu"
	"github.com/fraido/mame/timing/core"
)

const (
	base     = 0x80001000
	physBase = 0x00001000
)

var _ = Describe("Core", func() {
	var (
		logger *logrus.Logger
		mem    *emu.Memory
		cpu    *emu.CPU
		c      *core.Core
	)

	load := func(words ...uint32) {
		for i, w := range words {
			Expect(mem.Write32(physBase+uint32(i)*4, w)).To(Succeed())
		}
	}

	BeforeEach(func() {
		mem = emu.NewMemory(emu.BigEndian)
		Expect(mem.Map(0, 0x10000)).To(Succeed())

		logger = logrus.New()
		logger.SetOutput(io.Discard)
		cpu = emu.NewCPU(emu.R3000A, mem, emu.WithLogger(logger))
		c = core.NewCore(cpu, mem)
		c.SetPC(base)
	})

	It("should run a program until it parks in an idle loop", func() {
		load(
			0x2402002A, // addiu v0, zero, 42
			0x1000FFFF, // b .
			0x00000000, // nop
		)
		c.SetSlice(4)

		used, running := c.RunCycles(1000)

		Expect(running).To(BeFalse())
		Expect(used).To(BeNumerically("<", 1000))
		Expect(cpu.RegFile().ReadReg(2)).To(Equal(uint32(42)))
		Expect(c.Halted()).To(BeTrue())
	})

	It("should treat a jump to itself as idle", func() {
		load(0x08000000 | (base&0x0FFFFFFF)>>2) // j .

		Expect(c.Halted()).To(BeTrue())
	})

	It("should not treat code after an idle loop as idle when jumped to", func() {
		load(
			0x08000000|((base+12)&0x0FFFFFFF)>>2, // j base+12
			0x00000000,                           // nop
			0x1000FFFF,                           // b .
			0x24420001,                           // addiu v0, v0, 1
			0x24420001,                           // addiu v0, v0, 1
		)
		for i := 0; i < 2; i++ {
			cpu.Step()
		}

		Expect(cpu.RegFile().PC).To(Equal(uint32(base + 12)))
		Expect(cpu.InDelaySlot()).To(BeFalse())
		Expect(c.Halted()).To(BeFalse())
	})

	It("should treat the delay slot of an idle loop as idle", func() {
		load(0x1000FFFF, 0x00000000) // b . ; nop
		cpu.Step()

		Expect(cpu.InDelaySlot()).To(BeTrue())
		Expect(c.Halted()).To(BeTrue())
	})

	It("should keep running straight-line code", func() {
		load(0x24420001, 0x24420001, 0x24420001, 0x24420001)

		Expect(c.Halted()).To(BeFalse())
		used := c.Tick()
		Expect(used).To(BeNumerically(">=", 4))
	})

	It("should count slices and cycles", func() {
		c.SetSlice(10)

		used, running := c.RunCycles(25)

		Expect(running).To(BeTrue())
		Expect(used).To(BeNumerically(">=", 25))
		stats := c.Stats()
		Expect(stats.Slices).To(Equal(uint64(3)))
		Expect(stats.Cycles).To(Equal(used))
		Expect(stats.Instructions).To(Equal(cpu.Stats().Instructions))
	})

	It("should count slices cut short by an interrupt line", func() {
		cpu.SetLine(0, true)
		c.SetSlice(10)

		c.Tick()
		Expect(c.Stats().Yields).To(Equal(uint64(0)))

		yielding := &yieldBus{Memory: mem, cpu: cpu, after: 2}
		cpu = emu.NewCPU(emu.R3000A, yielding, emu.WithLogger(logger))
		yielding.cpu = cpu
		c = core.NewCore(cpu, yielding)
		c.SetPC(base)
		c.SetSlice(10)

		used := c.Tick()
		Expect(used).To(BeNumerically("<", 10))
		Expect(c.Stats().Yields).To(Equal(uint64(1)))
	})

	It("should ignore a zero slice", func() {
		c.SetSlice(0)
		Expect(c.Tick()).To(BeNumerically(">", 0))
	})

	It("should reset the CPU and the statistics", func() {
		c.Tick()
		c.Reset()

		Expect(c.Stats().Slices).To(BeZero())
		Expect(cpu.RegFile().PC).To(Equal(emu.ResetVector))
	})
})

// yieldBus asserts interrupt line 1 on the nth fetch.
type yieldBus struct {
	*emu.Memory
	cpu     *emu.CPU
	after   int
	fetches int
}

func (b *yieldBus) Fetch(addr uint32) (uint32, error) {
	b.fetches++
	if b.fetches == b.after {
		b.cpu.SetLine(1, true)
	}
	return b.Memory.Fetch(addr)
}
