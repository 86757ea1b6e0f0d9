package riscv

import (
	"errors"
	"fmt"
)

// RegisterCount is the number of general purpose registers of a hart.
const RegisterCount = 32

var ErrInvalidRegister = errors.New("invalid register index")

// Register identifies one of the 32 general purpose registers.
// Values outside 0-31 must never be used to index a RegisterFile,
// use RegisterFromUint32 when the index comes from untrusted input.
type Register uint8

const (
	Zero Register = iota // hardwired to 0
	RA
	SP
	GP
	TP
	T0
	T1
	T2
	S0
	S1
	A0
	A1
	A2
	A3
	A4
	A5
	A6
	A7
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	T3
	T4
	T5
	T6
)

var abiNames = [RegisterCount]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterFromUint32 validates v and converts it into a register index.
func RegisterFromUint32(v uint32) (Register, error) {
	if v >= RegisterCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRegister, v)
	}
	return Register(v), nil
}

func (r Register) Valid() bool {
	return r < RegisterCount
}

func (r Register) String() string {
	return fmt.Sprintf("x%d", uint8(r))
}

// ABIName returns the calling-convention name of the register, e.g. "a0" for x10.
func (r Register) ABIName() string {
	if !r.Valid() {
		return r.String()
	}
	return abiNames[r]
}

// RegisterFile holds the 32 general purpose registers. x0 always reads as zero.
type RegisterFile struct {
	regs [RegisterCount]uint32
}

func (rf *RegisterFile) Read(r Register) uint32 {
	if r == Zero {
		return 0
	}
	return rf.regs[r]
}

// Write sets the register. Writes to x0 are discarded.
func (rf *RegisterFile) Write(r Register, v uint32) {
	if r == Zero {
		return
	}
	rf.regs[r] = v
}

func (rf *RegisterFile) Reset() {
	rf.regs = [RegisterCount]uint32{}
}

// Snapshot returns a copy of all register values.
func (rf *RegisterFile) Snapshot() [RegisterCount]uint32 {
	out := rf.regs
	out[Zero] = 0
	return out
}
