package emu

// ALU implements MIPS-I arithmetic, logic, shift and multiply/divide
// operations on the register file.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// addOverflows reports whether a+b overflows as a signed 32-bit sum.
func addOverflows(a, b, sum uint32) bool {
	return (^(a ^ b) & (a ^ sum) & 0x80000000) != 0
}

// subOverflows reports whether a-b overflows as a signed 32-bit difference.
func subOverflows(a, b, diff uint32) bool {
	return ((a ^ b) & (a ^ diff) & 0x80000000) != 0
}

// ADD performs rd = rs + rt. It returns false and leaves rd unchanged on
// signed overflow.
func (a *ALU) ADD(rd, rs, rt uint8) bool {
	op1 := a.regFile.ReadReg(rs)
	op2 := a.regFile.ReadReg(rt)
	result := op1 + op2
	if addOverflows(op1, op2, result) {
		return false
	}
	a.regFile.WriteReg(rd, result)
	return true
}

// ADDU performs rd = rs + rt without trapping.
func (a *ALU) ADDU(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)+a.regFile.ReadReg(rt))
}

// SUB performs rd = rs - rt. It returns false and leaves rd unchanged on
// signed overflow.
func (a *ALU) SUB(rd, rs, rt uint8) bool {
	op1 := a.regFile.ReadReg(rs)
	op2 := a.regFile.ReadReg(rt)
	result := op1 - op2
	if subOverflows(op1, op2, result) {
		return false
	}
	a.regFile.WriteReg(rd, result)
	return true
}

// SUBU performs rd = rs - rt without trapping.
func (a *ALU) SUBU(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)-a.regFile.ReadReg(rt))
}

// AND performs rd = rs & rt.
func (a *ALU) AND(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)&a.regFile.ReadReg(rt))
}

// OR performs rd = rs | rt.
func (a *ALU) OR(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)|a.regFile.ReadReg(rt))
}

// XOR performs rd = rs ^ rt.
func (a *ALU) XOR(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)^a.regFile.ReadReg(rt))
}

// NOR performs rd = ^(rs | rt).
func (a *ALU) NOR(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, ^(a.regFile.ReadReg(rs) | a.regFile.ReadReg(rt)))
}

// SLT sets rd to 1 if rs < rt as signed values, else 0.
func (a *ALU) SLT(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, boolToWord(int32(a.regFile.ReadReg(rs)) < int32(a.regFile.ReadReg(rt))))
}

// SLTU sets rd to 1 if rs < rt as unsigned values, else 0.
func (a *ALU) SLTU(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, boolToWord(a.regFile.ReadReg(rs) < a.regFile.ReadReg(rt)))
}

// ADDI performs rt = rs + imm. It returns false and leaves rt unchanged on
// signed overflow.
func (a *ALU) ADDI(rt, rs uint8, imm int32) bool {
	op1 := a.regFile.ReadReg(rs)
	op2 := uint32(imm)
	result := op1 + op2
	if addOverflows(op1, op2, result) {
		return false
	}
	a.regFile.WriteReg(rt, result)
	return true
}

// ADDIU performs rt = rs + imm without trapping.
func (a *ALU) ADDIU(rt, rs uint8, imm int32) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)+uint32(imm))
}

// SLTI sets rt to 1 if rs < imm as signed values, else 0.
func (a *ALU) SLTI(rt, rs uint8, imm int32) {
	a.regFile.WriteReg(rt, boolToWord(int32(a.regFile.ReadReg(rs)) < imm))
}

// SLTIU sets rt to 1 if rs < the sign-extended imm as unsigned values.
func (a *ALU) SLTIU(rt, rs uint8, imm int32) {
	a.regFile.WriteReg(rt, boolToWord(a.regFile.ReadReg(rs) < uint32(imm)))
}

// ANDI performs rt = rs & zero_extend(imm).
func (a *ALU) ANDI(rt, rs uint8, imm uint32) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)&imm)
}

// ORI performs rt = rs | zero_extend(imm).
func (a *ALU) ORI(rt, rs uint8, imm uint32) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)|imm)
}

// XORI performs rt = rs ^ zero_extend(imm).
func (a *ALU) XORI(rt, rs uint8, imm uint32) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)^imm)
}

// LUI performs rt = imm << 16.
func (a *ALU) LUI(rt uint8, imm uint32) {
	a.regFile.WriteReg(rt, imm<<16)
}

// SLL performs rd = rt << shamt.
func (a *ALU) SLL(rd, rt, shamt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rt)<<(shamt&0x1F))
}

// SRL performs rd = rt >> shamt (logical).
func (a *ALU) SRL(rd, rt, shamt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rt)>>(shamt&0x1F))
}

// SRA performs rd = rt >> shamt (arithmetic).
func (a *ALU) SRA(rd, rt, shamt uint8) {
	a.regFile.WriteReg(rd, uint32(int32(a.regFile.ReadReg(rt))>>(shamt&0x1F)))
}

// SLLV performs rd = rt << (rs & 31).
func (a *ALU) SLLV(rd, rt, rs uint8) {
	a.SLL(rd, rt, uint8(a.regFile.ReadReg(rs)))
}

// SRLV performs rd = rt >> (rs & 31) (logical).
func (a *ALU) SRLV(rd, rt, rs uint8) {
	a.SRL(rd, rt, uint8(a.regFile.ReadReg(rs)))
}

// SRAV performs rd = rt >> (rs & 31) (arithmetic).
func (a *ALU) SRAV(rd, rt, rs uint8) {
	a.SRA(rd, rt, uint8(a.regFile.ReadReg(rs)))
}

// MULT computes the signed 64-bit product of rs and rt into HI:LO.
func (a *ALU) MULT(rs, rt uint8) {
	product := int64(int32(a.regFile.ReadReg(rs))) * int64(int32(a.regFile.ReadReg(rt)))
	a.regFile.HI = uint32(uint64(product) >> 32)
	a.regFile.LO = uint32(product)
}

// MULTU computes the unsigned 64-bit product of rs and rt into HI:LO.
func (a *ALU) MULTU(rs, rt uint8) {
	product := uint64(a.regFile.ReadReg(rs)) * uint64(a.regFile.ReadReg(rt))
	a.regFile.HI = uint32(product >> 32)
	a.regFile.LO = uint32(product)
}

// DIV computes the signed quotient into LO and remainder into HI.
// Division by zero yields LO = -1 (or 1 for a negative dividend) and
// HI = rs, as the hardware divider does.
func (a *ALU) DIV(rs, rt uint8) {
	n := int32(a.regFile.ReadReg(rs))
	d := int32(a.regFile.ReadReg(rt))
	if d == 0 {
		a.regFile.HI = uint32(n)
		if n < 0 {
			a.regFile.LO = 1
		} else {
			a.regFile.LO = 0xFFFFFFFF
		}
		return
	}
	a.regFile.LO = uint32(n / d)
	a.regFile.HI = uint32(n % d)
}

// DIVU computes the unsigned quotient into LO and remainder into HI.
// Division by zero yields LO = 0xffffffff and HI = rs.
func (a *ALU) DIVU(rs, rt uint8) {
	n := a.regFile.ReadReg(rs)
	d := a.regFile.ReadReg(rt)
	if d == 0 {
		a.regFile.HI = n
		a.regFile.LO = 0xFFFFFFFF
		return
	}
	a.regFile.LO = n / d
	a.regFile.HI = n % d
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
