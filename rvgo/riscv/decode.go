package riscv

import (
	"errors"
	"fmt"
)

var ErrInvalidInstruction = errors.New("invalid instruction")

// DecodeError reports an instruction word that is not part of the supported RV32I subset.
type DecodeError struct {
	Instr uint32
	// Err is the register validation failure, if that is what rejected the word.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid instruction %08x: %v", e.Instr, e.Err)
	}
	return fmt.Sprintf("invalid instruction %08x", e.Instr)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInstruction, e.Err}
	}
	return []error{ErrInvalidInstruction}
}

func parseOpcode(instr uint32) uint32 { return instr & 0x7F }
func parseRd(instr uint32) uint32     { return (instr >> 7) & 0x1F }
func parseFunct3(instr uint32) uint32 { return (instr >> 12) & 0x7 }
func parseRs1(instr uint32) uint32    { return (instr >> 15) & 0x1F }
func parseRs2(instr uint32) uint32    { return (instr >> 20) & 0x1F }
func parseFunct7(instr uint32) uint32 { return instr >> 25 }

// parseImmTypeI sign-extends bits 20-31.
func parseImmTypeI(instr uint32) int32 {
	return int32(instr) >> 20
}

// parseImmTypeS joins bits 25-31 (sign) with bits 7-11.
func parseImmTypeS(instr uint32) int32 {
	return (int32(instr)>>25)<<5 | int32((instr>>7)&0x1F)
}

// parseImmTypeB reassembles imm[12|10:5|4:1|11]; bit 0 is always zero.
func parseImmTypeB(instr uint32) int32 {
	return (int32(instr)>>31)<<12 |
		int32((instr>>7)&0x1)<<11 |
		int32((instr>>25)&0x3F)<<5 |
		int32((instr>>8)&0xF)<<1
}

// parseImmTypeU keeps the top 20 bits, low 12 bits zero.
func parseImmTypeU(instr uint32) int32 {
	return int32(instr & 0xFFFFF000)
}

// parseImmTypeJ reassembles imm[20|10:1|11|19:12]; bit 0 is always zero.
func parseImmTypeJ(instr uint32) int32 {
	return (int32(instr)>>31)<<20 |
		int32((instr>>12)&0xFF)<<12 |
		int32((instr>>20)&0x1)<<11 |
		int32((instr>>21)&0x3FF)<<1
}

// Decode maps an instruction word to its Instruction.
// Words outside the supported RV32I subset return a *DecodeError.
func Decode(instr uint32) (Instruction, error) {
	invalid := func() (Instruction, error) {
		return nil, &DecodeError{Instr: instr}
	}

	// these fields are ignored if not applicable to the instruction format
	opcode := parseOpcode(instr)
	rd, err := RegisterFromUint32(parseRd(instr))
	if err != nil {
		return nil, &DecodeError{Instr: instr, Err: err}
	}
	funct3 := parseFunct3(instr)
	rs1, err := RegisterFromUint32(parseRs1(instr))
	if err != nil {
		return nil, &DecodeError{Instr: instr, Err: err}
	}
	rs2, err := RegisterFromUint32(parseRs2(instr))
	if err != nil {
		return nil, &DecodeError{Instr: instr, Err: err}
	}
	funct7 := parseFunct7(instr)

	switch opcode {
	case OpcodeOp: // 011_0011: register arithmetic and logic
		var op Op
		switch funct7 {
		case 0x00:
			switch funct3 {
			case 0: // 000 = ADD
				op = OpAdd
			case 1: // 001 = SLL
				op = OpSll
			case 2: // 010 = SLT
				op = OpSlt
			case 3: // 011 = SLTU
				op = OpSltu
			case 4: // 100 = XOR
				op = OpXor
			case 5: // 101 = SRL
				op = OpSrl
			case 6: // 110 = OR
				op = OpOr
			case 7: // 111 = AND
				op = OpAnd
			}
		case 0x20:
			switch funct3 {
			case 0: // 000 = SUB
				op = OpSub
			case 5: // 101 = SRA
				op = OpSra
			}
		}
		if op == OpInvalid {
			return invalid()
		}
		return RegReg{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}, nil
	case OpcodeOpImm: // 001_0011: immediate arithmetic and logic
		imm := parseImmTypeI(instr)
		shamt := uint8(parseRs2(instr)) // the shift amount sits where rs2 would be
		switch funct3 {
		case 0: // 000 = ADDI
			return RegImm{Op: OpAddi, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 1: // 001 = SLLI
			if funct7 != 0x00 {
				return invalid()
			}
			return ShiftImm{Op: OpSlli, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
		case 2: // 010 = SLTI
			return RegImm{Op: OpSlti, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 3: // 011 = SLTIU
			return RegImm{Op: OpSltiu, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 4: // 100 = XORI
			return RegImm{Op: OpXori, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 5: // 101 = SR~, bit 30 selects the shift type
			switch funct7 {
			case 0x00: // 0000000 = SRLI
				return ShiftImm{Op: OpSrli, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			case 0x20: // 0100000 = SRAI
				return ShiftImm{Op: OpSrai, Rd: rd, Rs1: rs1, Shamt: shamt}, nil
			}
			return invalid()
		case 6: // 110 = ORI
			return RegImm{Op: OpOri, Rd: rd, Rs1: rs1, Imm: imm}, nil
		default: // 111 = ANDI
			return RegImm{Op: OpAndi, Rd: rd, Rs1: rs1, Imm: imm}, nil
		}
	case OpcodeLoad: // 000_0011: memory loading
		imm := parseImmTypeI(instr)
		var op Op
		switch funct3 {
		case 0: // 000 = LB
			op = OpLb
		case 1: // 001 = LH
			op = OpLh
		case 2: // 010 = LW
			op = OpLw
		case 4: // 100 = LBU
			op = OpLbu
		case 5: // 101 = LHU
			op = OpLhu
		default:
			return invalid()
		}
		return Load{Op: op, Rd: rd, Rs1: rs1, Imm: imm}, nil
	case OpcodeStore: // 010_0011: memory storing
		imm := parseImmTypeS(instr)
		var op Op
		switch funct3 {
		case 0: // 000 = SB
			op = OpSb
		case 1: // 001 = SH
			op = OpSh
		case 2: // 010 = SW
			op = OpSw
		default:
			return invalid()
		}
		return Store{Op: op, Rs1: rs1, Rs2: rs2, Imm: imm}, nil
	case OpcodeBranch: // 110_0011: branching
		imm := parseImmTypeB(instr)
		var op Op
		switch funct3 {
		case 0: // 000 = BEQ
			op = OpBeq
		case 1: // 001 = BNE
			op = OpBne
		case 4: // 100 = BLT
			op = OpBlt
		case 5: // 101 = BGE
			op = OpBge
		case 6: // 110 = BLTU
			op = OpBltu
		case 7: // 111 = BGEU
			op = OpBgeu
		default:
			return invalid()
		}
		return Branch{Op: op, Rs1: rs1, Rs2: rs2, Imm: imm}, nil
	case OpcodeJal: // 110_1111: JAL = Jump and link
		return Jal{Rd: rd, Imm: parseImmTypeJ(instr)}, nil
	case OpcodeJalr: // 110_0111: JALR = Jump and link register
		if funct3 != 0 {
			return invalid()
		}
		return Jalr{Rd: rd, Rs1: rs1, Imm: parseImmTypeI(instr)}, nil
	case OpcodeLui: // 011_0111: LUI = Load upper immediate
		return Lui{Rd: rd, Imm: parseImmTypeU(instr)}, nil
	case OpcodeAuipc: // 001_0111: AUIPC = Add upper immediate to PC
		return Auipc{Rd: rd, Imm: parseImmTypeU(instr)}, nil
	case OpcodeSystem: // 111_0011: environment things
		if funct3 != 0 {
			return invalid() // no CSR support
		}
		switch instr {
		case EcallWord:
			return Ecall{}, nil
		case EbreakWord:
			return Ebreak{}, nil
		}
		return invalid()
	default:
		return invalid()
	}
}
