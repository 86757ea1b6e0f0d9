package vm

import (
	"github.com/zkrisc/zkvm/rvgo/riscv"
)

// CPUState is the architectural state of the single hart.
type CPUState struct {
	regs   riscv.RegisterFile
	pc     uint32
	cycles uint64
}

func NewCPUState() *CPUState {
	return &CPUState{}
}

func (c *CPUState) Reset() {
	c.regs.Reset()
	c.pc = 0
	c.cycles = 0
}

func (c *CPUState) ReadRegister(r riscv.Register) uint32 {
	return c.regs.Read(r)
}

func (c *CPUState) WriteRegister(r riscv.Register, v uint32) {
	c.regs.Write(r, v)
}

func (c *CPUState) PC() uint32 {
	return c.pc
}

func (c *CPUState) Cycles() uint64 {
	return c.cycles
}

// IncrementPC moves to the next sequential instruction and counts a cycle.
func (c *CPUState) IncrementPC() {
	c.pc += riscv.InstrSize
	c.cycles++
}

// SetPC jumps to pc and counts a cycle.
func (c *CPUState) SetPC(pc uint32) {
	c.pc = pc
	c.cycles++
}

func (c *CPUState) Registers() [riscv.RegisterCount]uint32 {
	return c.regs.Snapshot()
}
