package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fraido/mame/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name opcodes by mnemonic", func() {
		Expect(insts.OpADDIU.String()).To(Equal("addiu"))
		Expect(insts.OpBGEZALL.String()).To(Equal("bgezall"))
		Expect(insts.OpSWR.String()).To(Equal("swr"))
		Expect(insts.Op(0xFFFF).String()).To(Equal("unknown"))
	})
})
