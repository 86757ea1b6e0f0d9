package riscv

import "fmt"

// Op is the mnemonic of a decoded instruction.
type Op uint8

const (
	OpInvalid Op = iota

	// register-register
	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd

	// register-immediate
	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai

	// loads
	OpLb
	OpLh
	OpLw
	OpLbu
	OpLhu

	// stores
	OpSb
	OpSh
	OpSw

	// branches
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu

	OpJal
	OpJalr
	OpLui
	OpAuipc
	OpEcall
	OpEbreak
)

var opNames = [...]string{
	OpInvalid: "invalid",
	OpAdd:     "add",
	OpSub:     "sub",
	OpSll:     "sll",
	OpSlt:     "slt",
	OpSltu:    "sltu",
	OpXor:     "xor",
	OpSrl:     "srl",
	OpSra:     "sra",
	OpOr:      "or",
	OpAnd:     "and",
	OpAddi:    "addi",
	OpSlti:    "slti",
	OpSltiu:   "sltiu",
	OpXori:    "xori",
	OpOri:     "ori",
	OpAndi:    "andi",
	OpSlli:    "slli",
	OpSrli:    "srli",
	OpSrai:    "srai",
	OpLb:      "lb",
	OpLh:      "lh",
	OpLw:      "lw",
	OpLbu:     "lbu",
	OpLhu:     "lhu",
	OpSb:      "sb",
	OpSh:      "sh",
	OpSw:      "sw",
	OpBeq:     "beq",
	OpBne:     "bne",
	OpBlt:     "blt",
	OpBge:     "bge",
	OpBltu:    "bltu",
	OpBgeu:    "bgeu",
	OpJal:     "jal",
	OpJalr:    "jalr",
	OpLui:     "lui",
	OpAuipc:   "auipc",
	OpEcall:   "ecall",
	OpEbreak:  "ebreak",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Format is the RISC-V encoding format of an instruction.
type Format uint8

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Instruction is a decoded RV32I instruction.
// The set of implementations is closed: only the types of this package satisfy it.
type Instruction interface {
	Mnemonic() Op
	Format() Format
	String() string
	instruction()
}

// RegReg is an R-type arithmetic/logic instruction: rd = rs1 <op> rs2.
type RegReg struct {
	Op       Op
	Rd       Register
	Rs1, Rs2 Register
}

// RegImm is an I-type arithmetic/logic instruction: rd = rs1 <op> imm.
type RegImm struct {
	Op  Op
	Rd  Register
	Rs1 Register
	Imm int32
}

// ShiftImm is an I-type shift by a 5-bit unsigned amount.
type ShiftImm struct {
	Op    Op
	Rd    Register
	Rs1   Register
	Shamt uint8
}

// Load reads memory at rs1+imm into rd.
type Load struct {
	Op  Op
	Rd  Register
	Rs1 Register
	Imm int32
}

// Store writes the low bits of rs2 to memory at rs1+imm.
type Store struct {
	Op       Op
	Rs1, Rs2 Register
	Imm      int32
}

// Branch jumps to pc+imm when the comparison of rs1 and rs2 holds.
type Branch struct {
	Op       Op
	Rs1, Rs2 Register
	Imm      int32
}

type Jal struct {
	Rd  Register
	Imm int32
}

type Jalr struct {
	Rd  Register
	Rs1 Register
	Imm int32
}

// Lui holds the upper immediate with the low 12 bits zeroed.
type Lui struct {
	Rd  Register
	Imm int32
}

// Auipc holds the upper immediate with the low 12 bits zeroed.
type Auipc struct {
	Rd  Register
	Imm int32
}

type Ecall struct{}

type Ebreak struct{}

func (RegReg) instruction()   {}
func (RegImm) instruction()   {}
func (ShiftImm) instruction() {}
func (Load) instruction()     {}
func (Store) instruction()    {}
func (Branch) instruction()   {}
func (Jal) instruction()      {}
func (Jalr) instruction()     {}
func (Lui) instruction()      {}
func (Auipc) instruction()    {}
func (Ecall) instruction()    {}
func (Ebreak) instruction()   {}

func (i RegReg) Mnemonic() Op   { return i.Op }
func (i RegImm) Mnemonic() Op   { return i.Op }
func (i ShiftImm) Mnemonic() Op { return i.Op }
func (i Load) Mnemonic() Op     { return i.Op }
func (i Store) Mnemonic() Op    { return i.Op }
func (i Branch) Mnemonic() Op   { return i.Op }
func (Jal) Mnemonic() Op        { return OpJal }
func (Jalr) Mnemonic() Op       { return OpJalr }
func (Lui) Mnemonic() Op        { return OpLui }
func (Auipc) Mnemonic() Op      { return OpAuipc }
func (Ecall) Mnemonic() Op      { return OpEcall }
func (Ebreak) Mnemonic() Op     { return OpEbreak }

func (RegReg) Format() Format   { return FormatR }
func (RegImm) Format() Format   { return FormatI }
func (ShiftImm) Format() Format { return FormatI }
func (Load) Format() Format     { return FormatI }
func (Store) Format() Format    { return FormatS }
func (Branch) Format() Format   { return FormatB }
func (Jal) Format() Format      { return FormatJ }
func (Jalr) Format() Format     { return FormatI }
func (Lui) Format() Format      { return FormatU }
func (Auipc) Format() Format    { return FormatU }
func (Ecall) Format() Format    { return FormatI }
func (Ebreak) Format() Format   { return FormatI }

func (i RegReg) String() string {
	return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Rd, i.Rs1, i.Rs2)
}

func (i RegImm) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.Op, i.Rd, i.Rs1, i.Imm)
}

func (i ShiftImm) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.Op, i.Rd, i.Rs1, i.Shamt)
}

func (i Load) String() string {
	return fmt.Sprintf("%s %s, %d(%s)", i.Op, i.Rd, i.Imm, i.Rs1)
}

func (i Store) String() string {
	return fmt.Sprintf("%s %s, %d(%s)", i.Op, i.Rs2, i.Imm, i.Rs1)
}

func (i Branch) String() string {
	return fmt.Sprintf("%s %s, %s, %d", i.Op, i.Rs1, i.Rs2, i.Imm)
}

func (i Jal) String() string {
	return fmt.Sprintf("jal %s, %d", i.Rd, i.Imm)
}

func (i Jalr) String() string {
	return fmt.Sprintf("jalr %s, %d(%s)", i.Rd, i.Imm, i.Rs1)
}

func (i Lui) String() string {
	return fmt.Sprintf("lui %s, 0x%x", i.Rd, uint32(i.Imm)>>12)
}

func (i Auipc) String() string {
	return fmt.Sprintf("auipc %s, 0x%x", i.Rd, uint32(i.Imm)>>12)
}

func (Ecall) String() string  { return "ecall" }
func (Ebreak) String() string { return "ebreak" }
