package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fraido/mame/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("SPECIAL register format", func() {
		// ADDU $2, $4, $5    -> 0x00851021
		It("should decode ADDU $2, $4, $5", func() {
			inst := decoder.Decode(0x00851021)

			Expect(inst.Op).To(Equal(insts.OpADDU))
			Expect(inst.Format).To(Equal(insts.FormatALUReg))
			Expect(inst.Rs).To(Equal(uint8(4)))
			Expect(inst.Rt).To(Equal(uint8(5)))
			Expect(inst.Rd).To(Equal(uint8(2)))
		})

		// SLL $0, $0, 0 (NOP) -> 0x00000000
		It("should decode NOP as SLL", func() {
			inst := decoder.Decode(0x00000000)

			Expect(inst.Op).To(Equal(insts.OpSLL))
			Expect(inst.Format).To(Equal(insts.FormatShift))
		})

		// SRA $3, $6, 7      -> 0x000619C3
		It("should decode the shift amount", func() {
			inst := decoder.Decode(encodeR(0, 6, 3, 7, 0x03))

			Expect(inst.Op).To(Equal(insts.OpSRA))
			Expect(inst.Shamt).To(Equal(uint8(7)))
			Expect(inst.Rd).To(Equal(uint8(3)))
		})

		It("should decode multiply, divide and HI/LO moves", func() {
			Expect(decoder.Decode(encodeR(4, 5, 0, 0, 0x18)).Op).To(Equal(insts.OpMULT))
			Expect(decoder.Decode(encodeR(4, 5, 0, 0, 0x19)).Op).To(Equal(insts.OpMULTU))
			Expect(decoder.Decode(encodeR(4, 5, 0, 0, 0x1A)).Op).To(Equal(insts.OpDIV))
			Expect(decoder.Decode(encodeR(4, 5, 0, 0, 0x1B)).Format).To(Equal(insts.FormatMulDiv))
			Expect(decoder.Decode(encodeR(0, 0, 2, 0, 0x10)).Op).To(Equal(insts.OpMFHI))
			Expect(decoder.Decode(encodeR(0, 0, 2, 0, 0x12)).Format).To(Equal(insts.FormatHiLo))
		})

		It("should decode JR and JALR", func() {
			jr := decoder.Decode(encodeR(31, 0, 0, 0, 0x08))
			Expect(jr.Op).To(Equal(insts.OpJR))
			Expect(jr.Link).To(BeFalse())

			jalr := decoder.Decode(encodeR(9, 0, 31, 0, 0x09))
			Expect(jalr.Op).To(Equal(insts.OpJALR))
			Expect(jalr.Format).To(Equal(insts.FormatJumpReg))
			Expect(jalr.Link).To(BeTrue())
			Expect(jalr.Rd).To(Equal(uint8(31)))
		})

		// SYSCALL with code 0x12345 -> code in bits [25:6]
		It("should decode SYSCALL and BREAK codes", func() {
			sys := decoder.Decode(0x12345<<6 | 0x0C)
			Expect(sys.Op).To(Equal(insts.OpSYSCALL))
			Expect(sys.Format).To(Equal(insts.FormatTrap))
			Expect(sys.Code).To(Equal(uint32(0x12345)))

			brk := decoder.Decode(0x0D)
			Expect(brk.Op).To(Equal(insts.OpBREAK))
		})

		It("should leave undefined functions unknown", func() {
			inst := decoder.Decode(encodeR(0, 0, 0, 0, 0x01))
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})
	})

	Describe("Immediate format", func() {
		// ADDIU $2, $0, -1   -> 0x2402FFFF
		It("should sign-extend the immediate", func() {
			inst := decoder.Decode(0x2402FFFF)

			Expect(inst.Op).To(Equal(insts.OpADDIU))
			Expect(inst.Format).To(Equal(insts.FormatALUImm))
			Expect(inst.Rt).To(Equal(uint8(2)))
			Expect(inst.SImm).To(Equal(int32(-1)))
			Expect(inst.Imm).To(Equal(uint32(0xFFFF)))
		})

		// LUI $8, 0x1234     -> 0x3C081234
		It("should decode LUI", func() {
			inst := decoder.Decode(0x3C081234)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rt).To(Equal(uint8(8)))
			Expect(inst.Imm).To(Equal(uint32(0x1234)))
		})

		It("should decode the logical immediates", func() {
			Expect(decoder.Decode(encodeI(0x0C, 1, 2, 0xFF)).Op).To(Equal(insts.OpANDI))
			Expect(decoder.Decode(encodeI(0x0D, 1, 2, 0xFF)).Op).To(Equal(insts.OpORI))
			Expect(decoder.Decode(encodeI(0x0E, 1, 2, 0xFF)).Op).To(Equal(insts.OpXORI))
			Expect(decoder.Decode(encodeI(0x0A, 1, 2, 0xFF)).Op).To(Equal(insts.OpSLTI))
			Expect(decoder.Decode(encodeI(0x0B, 1, 2, 0xFF)).Op).To(Equal(insts.OpSLTIU))
		})
	})

	Describe("Branches and jumps", func() {
		// BEQ $4, $5, -2     -> 0x1085FFFE
		It("should decode BEQ with a negative offset", func() {
			inst := decoder.Decode(0x1085FFFE)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Format).To(Equal(insts.FormatBranch))
			Expect(inst.SImm).To(Equal(int32(-2)))
			Expect(inst.Likely).To(BeFalse())
		})

		It("should decode the branch-likely forms", func() {
			inst := decoder.Decode(encodeI(0x14, 4, 5, 3))
			Expect(inst.Op).To(Equal(insts.OpBEQL))
			Expect(inst.Likely).To(BeTrue())

			Expect(decoder.Decode(encodeI(0x17, 4, 0, 3)).Op).To(Equal(insts.OpBGTZL))
		})

		It("should decode the REGIMM group", func() {
			bltz := decoder.Decode(encodeI(0x01, 4, 0x00, 1))
			Expect(bltz.Op).To(Equal(insts.OpBLTZ))

			bgezal := decoder.Decode(encodeI(0x01, 4, 0x11, 1))
			Expect(bgezal.Op).To(Equal(insts.OpBGEZAL))
			Expect(bgezal.Link).To(BeTrue())
			Expect(bgezal.Likely).To(BeFalse())

			bltzall := decoder.Decode(encodeI(0x01, 4, 0x12, 1))
			Expect(bltzall.Op).To(Equal(insts.OpBLTZALL))
			Expect(bltzall.Link).To(BeTrue())
			Expect(bltzall.Likely).To(BeTrue())

			unknown := decoder.Decode(encodeI(0x01, 4, 0x05, 1))
			Expect(unknown.Op).To(Equal(insts.OpUnknown))
			Expect(unknown.Format).To(Equal(insts.FormatUnknown))
		})

		// JAL 0x0100000      -> 0x0C100000
		It("should decode JAL", func() {
			inst := decoder.Decode(encodeJ(0x03, 0x100000))

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Format).To(Equal(insts.FormatJump))
			Expect(inst.Target).To(Equal(uint32(0x100000)))
			Expect(inst.Link).To(BeTrue())
		})
	})

	Describe("Loads and stores", func() {
		It("should decode every load", func() {
			ops := map[uint32]insts.Op{
				0x20: insts.OpLB, 0x21: insts.OpLH, 0x22: insts.OpLWL, 0x23: insts.OpLW,
				0x24: insts.OpLBU, 0x25: insts.OpLHU, 0x26: insts.OpLWR,
			}
			for opcode, op := range ops {
				inst := decoder.Decode(encodeI(opcode, 29, 2, 8))
				Expect(inst.Op).To(Equal(op))
				Expect(inst.Format).To(Equal(insts.FormatLoad))
			}
		})

		It("should decode every store", func() {
			ops := map[uint32]insts.Op{
				0x28: insts.OpSB, 0x29: insts.OpSH, 0x2A: insts.OpSWL,
				0x2B: insts.OpSW, 0x2E: insts.OpSWR,
			}
			for opcode, op := range ops {
				inst := decoder.Decode(encodeI(opcode, 29, 2, 8))
				Expect(inst.Op).To(Equal(op))
				Expect(inst.Format).To(Equal(insts.FormatStore))
			}
		})

		It("should decode LWC1 and SWC2", func() {
			lwc := decoder.Decode(encodeI(0x31, 4, 2, 0))
			Expect(lwc.Op).To(Equal(insts.OpLWC))
			Expect(lwc.Format).To(Equal(insts.FormatCopLoad))
			Expect(lwc.Cop).To(Equal(uint8(1)))

			swc := decoder.Decode(encodeI(0x3A, 4, 2, 0))
			Expect(swc.Op).To(Equal(insts.OpSWC))
			Expect(swc.Format).To(Equal(insts.FormatCopStore))
			Expect(swc.Cop).To(Equal(uint8(2)))
		})
	})

	Describe("Coprocessor instructions", func() {
		// MFC0 $2, $12       -> 0x40026000
		It("should decode MFC0", func() {
			inst := decoder.Decode(0x40026000)

			Expect(inst.Op).To(Equal(insts.OpMFC))
			Expect(inst.Format).To(Equal(insts.FormatCop))
			Expect(inst.Cop).To(Equal(uint8(0)))
			Expect(inst.Rt).To(Equal(uint8(2)))
			Expect(inst.Rd).To(Equal(uint8(12)))
		})

		// MTC0 $2, $12       -> 0x40826000
		It("should decode MTC0", func() {
			Expect(decoder.Decode(0x40826000).Op).To(Equal(insts.OpMTC))
		})

		It("should decode CFC1 and CTC1", func() {
			cfc := decoder.Decode(encodeCop(1, 0x02, 2, 31))
			Expect(cfc.Op).To(Equal(insts.OpCFC))
			Expect(cfc.Cop).To(Equal(uint8(1)))

			Expect(decoder.Decode(encodeCop(1, 0x06, 2, 31)).Op).To(Equal(insts.OpCTC))
		})

		It("should decode BCzF and BCzT", func() {
			bcf := decoder.Decode(encodeCop(2, 0x08, 0, 0) | 0x0004)
			Expect(bcf.Op).To(Equal(insts.OpBCF))
			Expect(bcf.SImm).To(Equal(int32(4)))

			bct := decoder.Decode(encodeCop(2, 0x08, 1, 0) | 0x0004)
			Expect(bct.Op).To(Equal(insts.OpBCT))
		})

		// TLBWI              -> 0x42000002
		// RFE                -> 0x42000010
		It("should decode COP0 operations", func() {
			tlbwi := decoder.Decode(0x42000002)
			Expect(tlbwi.Op).To(Equal(insts.OpCOP))
			Expect(tlbwi.CopFunc).To(Equal(uint32(0x02)))

			rfe := decoder.Decode(0x42000010)
			Expect(rfe.Op).To(Equal(insts.OpCOP))
			Expect(rfe.CopFunc).To(Equal(uint32(0x10)))
		})

		It("should keep undefined coprocessor moves in the coprocessor format", func() {
			inst := decoder.Decode(encodeCop(3, 0x01, 0, 0))
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatCop))
			Expect(inst.Cop).To(Equal(uint8(3)))
		})
	})

	Describe("Unknown Instructions", func() {
		It("should mark unassigned major opcodes as unknown", func() {
			inst := decoder.Decode(0xFC000000)

			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})
	})
})

// encodeR encodes a SPECIAL register-format instruction.
func encodeR(rs, rt, rd, shamt, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

// encodeI encodes an immediate-format instruction.
func encodeI(opcode, rs, rt, imm uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (imm & 0xFFFF)
}

// encodeJ encodes a jump-format instruction.
func encodeJ(opcode, target uint32) uint32 {
	return opcode<<26 | (target & 0x03FFFFFF)
}

// encodeCop encodes a COPz instruction with the given rs sub-opcode.
func encodeCop(cop, sub, rt, rd uint32) uint32 {
	return (0x10|cop)<<26 | sub<<21 | rt<<16 | rd<<11
}
