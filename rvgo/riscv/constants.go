package riscv

// Linux RISC-V syscall numbers understood by the VM.
const (
	SysRead  = 63
	SysWrite = 64
	SysExit  = 93

	FdStdin  = 0
	FdStdout = 1
	FdStderr = 2
)

// Base opcodes (bits 0-6) of the supported RV32I instructions.
const (
	OpcodeLoad   = 0x03
	OpcodeOpImm  = 0x13
	OpcodeAuipc  = 0x17
	OpcodeStore  = 0x23
	OpcodeOp     = 0x33
	OpcodeLui    = 0x37
	OpcodeBranch = 0x63
	OpcodeJalr   = 0x67
	OpcodeJal    = 0x6F
	OpcodeSystem = 0x73
)

// Full instruction words of the two trap instructions.
const (
	EcallWord  = 0x00000073
	EbreakWord = 0x00100073
)

// InstrSize is the width of every RV32I instruction, in bytes.
const InstrSize = 4
