package insts

// Op represents a MIPS-I opcode.
type Op uint16

// MIPS-I opcodes.
const (
	OpUnknown Op = iota

	// SPECIAL shifts
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV

	// SPECIAL jumps and traps
	OpJR
	OpJALR
	OpSYSCALL
	OpBREAK

	// HI/LO moves
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO

	// Multiply and divide
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU

	// SPECIAL register ALU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU

	// REGIMM branches
	OpBLTZ
	OpBGEZ
	OpBLTZAL
	OpBGEZAL
	OpBLTZL
	OpBGEZL
	OpBLTZALL
	OpBGEZALL

	// Jumps and branches
	OpJ
	OpJAL
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpBEQL
	OpBNEL
	OpBLEZL
	OpBGTZL

	// Immediate ALU
	OpADDI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI

	// Coprocessor
	OpMFC
	OpCFC
	OpMTC
	OpCTC
	OpBCF
	OpBCT
	OpCOP

	// Loads
	OpLB
	OpLH
	OpLWL
	OpLW
	OpLBU
	OpLHU
	OpLWR
	OpLWC

	// Stores
	OpSB
	OpSH
	OpSWL
	OpSW
	OpSWR
	OpSWC
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpSLL:     "sll", OpSRL: "srl", OpSRA: "sra",
	OpSLLV: "sllv", OpSRLV: "srlv", OpSRAV: "srav",
	OpJR: "jr", OpJALR: "jalr", OpSYSCALL: "syscall", OpBREAK: "break",
	OpMFHI: "mfhi", OpMTHI: "mthi", OpMFLO: "mflo", OpMTLO: "mtlo",
	OpMULT: "mult", OpMULTU: "multu", OpDIV: "div", OpDIVU: "divu",
	OpADD: "add", OpADDU: "addu", OpSUB: "sub", OpSUBU: "subu",
	OpAND: "and", OpOR: "or", OpXOR: "xor", OpNOR: "nor",
	OpSLT: "slt", OpSLTU: "sltu",
	OpBLTZ: "bltz", OpBGEZ: "bgez", OpBLTZAL: "bltzal", OpBGEZAL: "bgezal",
	OpBLTZL: "bltzl", OpBGEZL: "bgezl", OpBLTZALL: "bltzall", OpBGEZALL: "bgezall",
	OpJ: "j", OpJAL: "jal", OpBEQ: "beq", OpBNE: "bne",
	OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpBEQL: "beql", OpBNEL: "bnel", OpBLEZL: "blezl", OpBGTZL: "bgtzl",
	OpADDI: "addi", OpADDIU: "addiu", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpANDI: "andi", OpORI: "ori", OpXORI: "xori", OpLUI: "lui",
	OpMFC: "mfc", OpCFC: "cfc", OpMTC: "mtc", OpCTC: "ctc",
	OpBCF: "bcf", OpBCT: "bct", OpCOP: "cop",
	OpLB: "lb", OpLH: "lh", OpLWL: "lwl", OpLW: "lw",
	OpLBU: "lbu", OpLHU: "lhu", OpLWR: "lwr", OpLWC: "lwc",
	OpSB: "sb", OpSH: "sh", OpSWL: "swl", OpSW: "sw", OpSWR: "swr", OpSWC: "swc",
}

// String returns the assembler mnemonic stem of the opcode.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Format represents an instruction class used for dispatch.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatShift          // SPECIAL shifts (immediate and variable)
	FormatALUReg         // SPECIAL three-register ALU
	FormatALUImm         // Immediate ALU and LUI
	FormatHiLo           // MFHI/MTHI/MFLO/MTLO
	FormatMulDiv         // MULT/MULTU/DIV/DIVU
	FormatTrap           // SYSCALL/BREAK
	FormatJump           // J/JAL
	FormatJumpReg        // JR/JALR
	FormatBranch         // Conditional branches
	FormatLoad           // Loads to general registers
	FormatStore          // Stores from general registers
	FormatCop            // Coprocessor moves, branches and operations
	FormatCopLoad        // LWCz
	FormatCopStore       // SWCz
)

// Instruction represents a decoded MIPS-I instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	// Register fields
	Rs    uint8 // bits [25:21]
	Rt    uint8 // bits [20:16]
	Rd    uint8 // bits [15:11]
	Shamt uint8 // bits [10:6]

	// Immediate operand
	Imm  uint32 // Zero-extended 16-bit immediate
	SImm int32  // Sign-extended 16-bit immediate

	// Jump fields
	Target uint32 // 26-bit jump index

	// Branch fields
	Link   bool // Writes the return address to $31 (or Rd for JALR)
	Likely bool // Nullifies the delay slot when not taken

	// Coprocessor fields
	Cop     uint8  // Coprocessor number 0-3
	CopFunc uint32 // bits [24:0] of a COPz operation

	// Code is the 20-bit SYSCALL/BREAK code field.
	Code uint32
}

// Decoder decodes MIPS-I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS-I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS-I instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Op:     OpUnknown,
		Format: FormatUnknown,
		Word:   word,
		Rs:     uint8((word >> 21) & 0x1F),
		Rt:     uint8((word >> 16) & 0x1F),
		Rd:     uint8((word >> 11) & 0x1F),
		Shamt:  uint8((word >> 6) & 0x1F),
		Imm:    word & 0xFFFF,
		SImm:   int32(int16(word & 0xFFFF)),
		Target: word & 0x03FFFFFF,
	}

	opcode := word >> 26

	switch opcode {
	case 0x00:
		d.decodeSpecial(word, inst)
	case 0x01:
		d.decodeRegImm(inst)
	case 0x02, 0x03:
		inst.Format = FormatJump
		inst.Op = OpJ
		if opcode == 0x03 {
			inst.Op = OpJAL
			inst.Link = true
		}
	case 0x04, 0x05, 0x06, 0x07, 0x14, 0x15, 0x16, 0x17:
		d.decodeBranch(opcode, inst)
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F:
		d.decodeALUImm(opcode, inst)
	case 0x10, 0x11, 0x12, 0x13:
		d.decodeCop(word, inst)
	case 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26:
		d.decodeLoad(opcode, inst)
	case 0x28, 0x29, 0x2A, 0x2B, 0x2E:
		d.decodeStore(opcode, inst)
	case 0x30, 0x31, 0x32, 0x33:
		inst.Op = OpLWC
		inst.Format = FormatCopLoad
		inst.Cop = uint8(opcode & 0x3)
	case 0x38, 0x39, 0x3A, 0x3B:
		inst.Op = OpSWC
		inst.Format = FormatCopStore
		inst.Cop = uint8(opcode & 0x3)
	}

	return inst
}

// decodeSpecial decodes the SPECIAL group selected by the funct field.
// Format: 000000 | rs | rt | rd | shamt | funct
func (d *Decoder) decodeSpecial(word uint32, inst *Instruction) {
	funct := word & 0x3F

	switch funct {
	case 0x00:
		inst.Op, inst.Format = OpSLL, FormatShift
	case 0x02:
		inst.Op, inst.Format = OpSRL, FormatShift
	case 0x03:
		inst.Op, inst.Format = OpSRA, FormatShift
	case 0x04:
		inst.Op, inst.Format = OpSLLV, FormatShift
	case 0x06:
		inst.Op, inst.Format = OpSRLV, FormatShift
	case 0x07:
		inst.Op, inst.Format = OpSRAV, FormatShift
	case 0x08:
		inst.Op, inst.Format = OpJR, FormatJumpReg
	case 0x09:
		inst.Op, inst.Format = OpJALR, FormatJumpReg
		inst.Link = true
	case 0x0C:
		inst.Op, inst.Format = OpSYSCALL, FormatTrap
		inst.Code = (word >> 6) & 0xFFFFF
	case 0x0D:
		inst.Op, inst.Format = OpBREAK, FormatTrap
		inst.Code = (word >> 6) & 0xFFFFF
	case 0x10:
		inst.Op, inst.Format = OpMFHI, FormatHiLo
	case 0x11:
		inst.Op, inst.Format = OpMTHI, FormatHiLo
	case 0x12:
		inst.Op, inst.Format = OpMFLO, FormatHiLo
	case 0x13:
		inst.Op, inst.Format = OpMTLO, FormatHiLo
	case 0x18:
		inst.Op, inst.Format = OpMULT, FormatMulDiv
	case 0x19:
		inst.Op, inst.Format = OpMULTU, FormatMulDiv
	case 0x1A:
		inst.Op, inst.Format = OpDIV, FormatMulDiv
	case 0x1B:
		inst.Op, inst.Format = OpDIVU, FormatMulDiv
	case 0x20:
		inst.Op, inst.Format = OpADD, FormatALUReg
	case 0x21:
		inst.Op, inst.Format = OpADDU, FormatALUReg
	case 0x22:
		inst.Op, inst.Format = OpSUB, FormatALUReg
	case 0x23:
		inst.Op, inst.Format = OpSUBU, FormatALUReg
	case 0x24:
		inst.Op, inst.Format = OpAND, FormatALUReg
	case 0x25:
		inst.Op, inst.Format = OpOR, FormatALUReg
	case 0x26:
		inst.Op, inst.Format = OpXOR, FormatALUReg
	case 0x27:
		inst.Op, inst.Format = OpNOR, FormatALUReg
	case 0x2A:
		inst.Op, inst.Format = OpSLT, FormatALUReg
	case 0x2B:
		inst.Op, inst.Format = OpSLTU, FormatALUReg
	}
}

// decodeRegImm decodes the REGIMM branch group selected by the rt field.
// Bit 4 of rt requests linking, bit 1 the branch-likely form.
func (d *Decoder) decodeRegImm(inst *Instruction) {
	inst.Format = FormatBranch

	switch inst.Rt {
	case 0x00:
		inst.Op = OpBLTZ
	case 0x01:
		inst.Op = OpBGEZ
	case 0x02:
		inst.Op, inst.Likely = OpBLTZL, true
	case 0x03:
		inst.Op, inst.Likely = OpBGEZL, true
	case 0x10:
		inst.Op, inst.Link = OpBLTZAL, true
	case 0x11:
		inst.Op, inst.Link = OpBGEZAL, true
	case 0x12:
		inst.Op, inst.Link, inst.Likely = OpBLTZALL, true, true
	case 0x13:
		inst.Op, inst.Link, inst.Likely = OpBGEZALL, true, true
	default:
		inst.Format = FormatUnknown
	}
}

// decodeBranch decodes the two-register and compare-with-zero branches.
func (d *Decoder) decodeBranch(opcode uint32, inst *Instruction) {
	inst.Format = FormatBranch
	inst.Likely = opcode >= 0x14

	switch opcode {
	case 0x04:
		inst.Op = OpBEQ
	case 0x05:
		inst.Op = OpBNE
	case 0x06:
		inst.Op = OpBLEZ
	case 0x07:
		inst.Op = OpBGTZ
	case 0x14:
		inst.Op = OpBEQL
	case 0x15:
		inst.Op = OpBNEL
	case 0x16:
		inst.Op = OpBLEZL
	case 0x17:
		inst.Op = OpBGTZL
	}
}

// decodeALUImm decodes immediate ALU operations.
// Format: opcode | rs | rt | imm16
func (d *Decoder) decodeALUImm(opcode uint32, inst *Instruction) {
	inst.Format = FormatALUImm

	switch opcode {
	case 0x08:
		inst.Op = OpADDI
	case 0x09:
		inst.Op = OpADDIU
	case 0x0A:
		inst.Op = OpSLTI
	case 0x0B:
		inst.Op = OpSLTIU
	case 0x0C:
		inst.Op = OpANDI
	case 0x0D:
		inst.Op = OpORI
	case 0x0E:
		inst.Op = OpXORI
	case 0x0F:
		inst.Op = OpLUI
	}
}

// decodeCop decodes a COPz instruction. The rs field selects a move,
// a condition branch or (with bit 4 set) a coprocessor-specific operation.
func (d *Decoder) decodeCop(word uint32, inst *Instruction) {
	inst.Format = FormatCop
	inst.Cop = uint8((word >> 26) & 0x3)

	switch {
	case inst.Rs&0x10 != 0:
		inst.Op = OpCOP
		inst.CopFunc = word & 0x01FFFFFF
	case inst.Rs == 0x00:
		inst.Op = OpMFC
	case inst.Rs == 0x02:
		inst.Op = OpCFC
	case inst.Rs == 0x04:
		inst.Op = OpMTC
	case inst.Rs == 0x06:
		inst.Op = OpCTC
	case inst.Rs == 0x08 && inst.Rt == 0x00:
		inst.Op = OpBCF
	case inst.Rs == 0x08 && inst.Rt == 0x01:
		inst.Op = OpBCT
	default:
		// Recognized as a coprocessor instruction so the usability check
		// still applies before it is rejected as reserved.
		inst.Op = OpUnknown
	}
}

// decodeLoad decodes loads into general-purpose registers.
func (d *Decoder) decodeLoad(opcode uint32, inst *Instruction) {
	inst.Format = FormatLoad

	switch opcode {
	case 0x20:
		inst.Op = OpLB
	case 0x21:
		inst.Op = OpLH
	case 0x22:
		inst.Op = OpLWL
	case 0x23:
		inst.Op = OpLW
	case 0x24:
		inst.Op = OpLBU
	case 0x25:
		inst.Op = OpLHU
	case 0x26:
		inst.Op = OpLWR
	}
}

// decodeStore decodes stores from general-purpose registers.
func (d *Decoder) decodeStore(opcode uint32, inst *Instruction) {
	inst.Format = FormatStore

	switch opcode {
	case 0x28:
		inst.Op = OpSB
	case 0x29:
		inst.Op = OpSH
	case 0x2A:
		inst.Op = OpSWL
	case 0x2B:
		inst.Op = OpSW
	case 0x2E:
		inst.Op = OpSWR
	}
}
