package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fraido/mame/emu"
)

var _ = Describe("Debug access", func() {
	var m *machine

	BeforeEach(func() {
		m = newMachine(emu.R3000A, emu.BigEndian)
	})

	It("should resolve general registers by ABI and numeric names", func() {
		m.setReg(29, 0x80007FF0)
		m.setReg(30, 0x1234)

		for _, name := range []string{"sp", "$sp", "r29", "$29", "SP"} {
			v, err := m.cpu.Register(name)
			Expect(err).NotTo(HaveOccurred(), name)
			Expect(v).To(Equal(uint32(0x80007FF0)), name)
		}

		v, err := m.cpu.Register("s8")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0x1234)))
	})

	It("should set special registers", func() {
		Expect(m.cpu.SetRegister("hi", 1)).To(Succeed())
		Expect(m.cpu.SetRegister("lo", 2)).To(Succeed())
		Expect(m.cpu.SetRegister("a0", 3)).To(Succeed())

		Expect(m.cpu.RegFile().HI).To(Equal(uint32(1)))
		Expect(m.cpu.RegFile().LO).To(Equal(uint32(2)))
		Expect(m.reg(4)).To(Equal(uint32(3)))
	})

	It("should reject unknown names", func() {
		_, err := m.cpu.Register("r32")
		Expect(err).To(MatchError(emu.ErrUnknownRegister))

		err = m.cpu.SetRegister("bogus", 0)
		Expect(err).To(MatchError(emu.ErrUnknownRegister))
		Expect(err.Error()).To(ContainSubstring("bogus"))
	})

	It("should write COP0 registers raw", func() {
		Expect(m.cpu.SetRegister("badvaddr", 0xDEADBEEF)).To(Succeed())
		Expect(m.cpu.SetRegister("random", 20<<8)).To(Succeed())

		Expect(m.cop0(emu.Cop0BadVAddr)).To(Equal(uint32(0xDEADBEEF)))
		Expect(m.cop0(emu.Cop0Random)).To(Equal(uint32(20 << 8)))
	})

	It("should keep Random within the unwired slots", func() {
		Expect(m.cpu.SetRegister("random", 3<<8)).To(Succeed())
		Expect(m.cop0(emu.Cop0Random)).To(Equal(uint32(8 << 8)))

		m.load(programBase, nop(), nop())
		m.steps(2)
		random := m.cop0(emu.Cop0Random) >> 8
		Expect(random).To(BeNumerically(">=", 8))
		Expect(random).To(BeNumerically("<=", 63))
	})

	It("should list registers by group", func() {
		groups := map[string]int{}
		for _, info := range m.cpu.Registers() {
			Expect(info.BitWidth).To(Equal(32))
			groups[info.Group]++
		}

		Expect(groups["gpr"]).To(Equal(32))
		Expect(groups["special"]).To(Equal(3))
		Expect(groups["cop0"]).To(Equal(10))
		Expect(groups).NotTo(HaveKey("fpu"))
	})

	It("should list FPU control registers when an FPU is attached", func() {
		m = newMachine(emu.R3000A, emu.BigEndian, emu.WithFPU(0x0340))

		var names []string
		for _, info := range m.cpu.Registers() {
			if info.Group == "fpu" {
				names = append(names, info.Name)
			}
		}
		Expect(names).To(Equal([]string{"fcr0", "fcr31"}))
	})

	It("should access coprocessor registers the way moves do", func() {
		m.cpu.SetCopRegister(2, 5, false, 0xAA)
		m.cpu.SetCopRegister(2, 6, true, 0xBB)
		m.cpu.SetCopRegister(0, emu.Cop0EntryHi, false, 0xFFFFFFFF)

		Expect(m.cpu.CopRegister(2, 5, false)).To(Equal(uint32(0xAA)))
		Expect(m.cpu.CopRegister(2, 6, true)).To(Equal(uint32(0xBB)))
		Expect(m.cpu.CopRegister(0, emu.Cop0EntryHi, false)).To(Equal(uint32(0xFFFFFFC0)))
	})

	It("should read TLB slots", func() {
		m.cpu.TLB().Write(3, 0x00400000, 0x2000|emu.EntryLoV)

		entry, err := m.cpu.TLBEntry(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.VPN()).To(Equal(uint32(0x00400000)))
		Expect(entry.PFN()).To(Equal(uint32(0x2000)))
		Expect(entry.Valid()).To(BeTrue())
		Expect(entry.Dirty()).To(BeFalse())

		_, err = m.cpu.TLBEntry(64)
		Expect(err).To(HaveOccurred())
	})

	It("should summarize the core state", func() {
		Expect(m.cpu.String()).To(ContainSubstring("R3000A pc=bfc00000"))
	})

	It("should name exception codes", func() {
		Expect(emu.ExcTLBL.String()).To(Equal("TLBL"))
		Expect(emu.ExceptionCode(20).String()).To(Equal("Exc20"))
		Expect(emu.IntentStore.String()).To(Equal("store"))
		Expect(emu.LittleEndian.String()).To(Equal("little"))
	})
})
