// Package insts provides MIPS-I instruction definitions and decoding.
//
// This package implements decoding of MIPS-I machine code into structured
// instruction representations. It supports:
//   - SPECIAL register-format ALU, shift, multiply/divide and HI/LO moves
//   - Immediate ALU operations and LUI
//   - Branches (including the REGIMM group and the optional branch-likely
//     forms), jumps and jump-and-link variants
//   - Byte, halfword, word and unaligned left/right loads and stores
//   - Coprocessor moves, condition branches, operations and LWCz/SWCz
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x2402002a) // addiu $2, $0, 42
//	fmt.Printf("Op: %v, Rt: %d, Imm: %d\n", inst.Op, inst.Rt, inst.SImm)
package insts
