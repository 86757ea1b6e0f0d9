package riscv

import "fmt"

// EncodeRType assembles an R-type instruction word from its fields.
func EncodeRType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeIType assembles an I-type instruction word; imm is truncated to 12 bits.
func EncodeIType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeSType assembles an S-type instruction word; imm is truncated to 12 bits.
func EncodeSType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	immU := uint32(imm) & 0xFFF
	return (immU>>5)<<25 | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (immU&0x1F)<<7 | opcode
}

// EncodeBType assembles a B-type instruction word; imm is a 13-bit even offset.
func EncodeBType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	immU := uint32(imm)
	return ((immU>>12)&0x1)<<31 | ((immU>>5)&0x3F)<<25 |
		(rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
		((immU>>1)&0xF)<<8 | ((immU>>11)&0x1)<<7 | opcode
}

// EncodeUType assembles a U-type instruction word; the low 12 bits of imm are dropped.
func EncodeUType(opcode, rd uint32, imm int32) uint32 {
	return (uint32(imm) & 0xFFFFF000) | (rd << 7) | opcode
}

// EncodeJType assembles a J-type instruction word; imm is a 21-bit even offset.
func EncodeJType(opcode, rd uint32, imm int32) uint32 {
	immU := uint32(imm)
	return ((immU>>20)&0x1)<<31 | ((immU>>1)&0x3FF)<<21 |
		((immU>>11)&0x1)<<20 | ((immU>>12)&0xFF)<<12 |
		(rd << 7) | opcode
}

type encoding struct {
	funct3 uint32
	funct7 uint32
}

var encodings = map[Op]encoding{
	OpAdd:  {0, 0x00},
	OpSub:  {0, 0x20},
	OpSll:  {1, 0x00},
	OpSlt:  {2, 0x00},
	OpSltu: {3, 0x00},
	OpXor:  {4, 0x00},
	OpSrl:  {5, 0x00},
	OpSra:  {5, 0x20},
	OpOr:   {6, 0x00},
	OpAnd:  {7, 0x00},

	OpAddi:  {0, 0},
	OpSlti:  {2, 0},
	OpSltiu: {3, 0},
	OpXori:  {4, 0},
	OpOri:   {6, 0},
	OpAndi:  {7, 0},
	OpSlli:  {1, 0x00},
	OpSrli:  {5, 0x00},
	OpSrai:  {5, 0x20},

	OpLb:  {0, 0},
	OpLh:  {1, 0},
	OpLw:  {2, 0},
	OpLbu: {4, 0},
	OpLhu: {5, 0},

	OpSb: {0, 0},
	OpSh: {1, 0},
	OpSw: {2, 0},

	OpBeq:  {0, 0},
	OpBne:  {1, 0},
	OpBlt:  {4, 0},
	OpBge:  {5, 0},
	OpBltu: {6, 0},
	OpBgeu: {7, 0},
}

func lookupEncoding(in Instruction, valid ...Op) (encoding, error) {
	op := in.Mnemonic()
	for _, v := range valid {
		if v == op {
			return encodings[op], nil
		}
	}
	return encoding{}, fmt.Errorf("cannot encode %s as %s-type", op, in.Format())
}

func checkRegisters(regs ...Register) error {
	for _, r := range regs {
		if !r.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidRegister, uint8(r))
		}
	}
	return nil
}

// Encode assembles the instruction word of a decoded instruction.
// Immediates that do not fit the format are rejected, so Decode(Encode(i)) == i.
func Encode(in Instruction) (uint32, error) {
	switch i := in.(type) {
	case RegReg:
		enc, err := lookupEncoding(i, OpAdd, OpSub, OpSll, OpSlt, OpSltu, OpXor, OpSrl, OpSra, OpOr, OpAnd)
		if err != nil {
			return 0, err
		}
		if err := checkRegisters(i.Rd, i.Rs1, i.Rs2); err != nil {
			return 0, err
		}
		return EncodeRType(OpcodeOp, uint32(i.Rd), enc.funct3, uint32(i.Rs1), uint32(i.Rs2), enc.funct7), nil
	case RegImm:
		enc, err := lookupEncoding(i, OpAddi, OpSlti, OpSltiu, OpXori, OpOri, OpAndi)
		if err != nil {
			return 0, err
		}
		if err := checkRegisters(i.Rd, i.Rs1); err != nil {
			return 0, err
		}
		if err := checkImm(i.Imm, 12, 1); err != nil {
			return 0, err
		}
		return EncodeIType(OpcodeOpImm, uint32(i.Rd), enc.funct3, uint32(i.Rs1), i.Imm), nil
	case ShiftImm:
		enc, err := lookupEncoding(i, OpSlli, OpSrli, OpSrai)
		if err != nil {
			return 0, err
		}
		if err := checkRegisters(i.Rd, i.Rs1); err != nil {
			return 0, err
		}
		if i.Shamt > 31 {
			return 0, fmt.Errorf("shift amount %d out of range", i.Shamt)
		}
		return EncodeRType(OpcodeOpImm, uint32(i.Rd), enc.funct3, uint32(i.Rs1), uint32(i.Shamt), enc.funct7), nil
	case Load:
		enc, err := lookupEncoding(i, OpLb, OpLh, OpLw, OpLbu, OpLhu)
		if err != nil {
			return 0, err
		}
		if err := checkRegisters(i.Rd, i.Rs1); err != nil {
			return 0, err
		}
		if err := checkImm(i.Imm, 12, 1); err != nil {
			return 0, err
		}
		return EncodeIType(OpcodeLoad, uint32(i.Rd), enc.funct3, uint32(i.Rs1), i.Imm), nil
	case Store:
		enc, err := lookupEncoding(i, OpSb, OpSh, OpSw)
		if err != nil {
			return 0, err
		}
		if err := checkRegisters(i.Rs1, i.Rs2); err != nil {
			return 0, err
		}
		if err := checkImm(i.Imm, 12, 1); err != nil {
			return 0, err
		}
		return EncodeSType(OpcodeStore, enc.funct3, uint32(i.Rs1), uint32(i.Rs2), i.Imm), nil
	case Branch:
		enc, err := lookupEncoding(i, OpBeq, OpBne, OpBlt, OpBge, OpBltu, OpBgeu)
		if err != nil {
			return 0, err
		}
		if err := checkRegisters(i.Rs1, i.Rs2); err != nil {
			return 0, err
		}
		if err := checkImm(i.Imm, 13, 2); err != nil {
			return 0, err
		}
		return EncodeBType(OpcodeBranch, enc.funct3, uint32(i.Rs1), uint32(i.Rs2), i.Imm), nil
	case Jal:
		if err := checkRegisters(i.Rd); err != nil {
			return 0, err
		}
		if err := checkImm(i.Imm, 21, 2); err != nil {
			return 0, err
		}
		return EncodeJType(OpcodeJal, uint32(i.Rd), i.Imm), nil
	case Jalr:
		if err := checkRegisters(i.Rd, i.Rs1); err != nil {
			return 0, err
		}
		if err := checkImm(i.Imm, 12, 1); err != nil {
			return 0, err
		}
		return EncodeIType(OpcodeJalr, uint32(i.Rd), 0, uint32(i.Rs1), i.Imm), nil
	case Lui:
		if err := checkRegisters(i.Rd); err != nil {
			return 0, err
		}
		if i.Imm&0xFFF != 0 {
			return 0, fmt.Errorf("upper immediate 0x%x has low bits set", uint32(i.Imm))
		}
		return EncodeUType(OpcodeLui, uint32(i.Rd), i.Imm), nil
	case Auipc:
		if err := checkRegisters(i.Rd); err != nil {
			return 0, err
		}
		if i.Imm&0xFFF != 0 {
			return 0, fmt.Errorf("upper immediate 0x%x has low bits set", uint32(i.Imm))
		}
		return EncodeUType(OpcodeAuipc, uint32(i.Rd), i.Imm), nil
	case Ecall:
		return EcallWord, nil
	case Ebreak:
		return EbreakWord, nil
	default:
		return 0, fmt.Errorf("unknown instruction type %T", in)
	}
}

// checkImm verifies imm is a signed bits-wide value and a multiple of align.
func checkImm(imm int32, bits uint, align int32) error {
	lo, hi := -int32(1)<<(bits-1), int32(1)<<(bits-1)-1
	if imm < lo || imm > hi {
		return fmt.Errorf("immediate %d does not fit in %d bits", imm, bits)
	}
	if imm%align != 0 {
		return fmt.Errorf("immediate %d is not a multiple of %d", imm, align)
	}
	return nil
}
