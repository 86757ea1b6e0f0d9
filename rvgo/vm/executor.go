package vm

import (
	"fmt"

	"github.com/zkrisc/zkvm/rvgo/riscv"
)

// Executor applies decoded instructions to a CPU and memory.
// A failing instruction leaves both exactly as they were before it.
type Executor struct {
	syscalls Syscalls

	// nil when not tracing
	trace *ExecutionTrace
}

func NewExecutor(syscalls Syscalls) *Executor {
	return &Executor{syscalls: syscalls}
}

// StartTrace begins recording executed cycles, dropping any earlier recording.
func (e *Executor) StartTrace() {
	e.trace = &ExecutionTrace{}
}

// StopTrace ends recording and returns what was recorded, or nil if not tracing.
func (e *Executor) StopTrace() *ExecutionTrace {
	t := e.trace
	e.trace = nil
	return t
}

func (e *Executor) recordAccess(addr, value uint32, isWrite bool, cycle uint64) {
	if e.trace == nil {
		return
	}
	e.trace.MemoryAccesses = append(e.trace.MemoryAccesses, MemoryAccess{
		Address: addr,
		Value:   value,
		IsWrite: isWrite,
		Cycle:   cycle,
	})
}

// ExecuteCycle fetches, decodes and executes the instruction at pc.
func (e *Executor) ExecuteCycle(cpu *CPUState, mem *Memory) (bool, error) {
	pc := cpu.PC()
	instr, err := mem.LoadWord(pc)
	if err != nil {
		return false, fmt.Errorf("failed to fetch instruction at pc 0x%08x: %w", pc, err)
	}
	in, err := riscv.Decode(instr)
	if err != nil {
		return false, fmt.Errorf("failed to decode at pc 0x%08x: %w", pc, err)
	}
	accesses := 0
	if e.trace != nil {
		accesses = len(e.trace.MemoryAccesses)
	}
	halt, err := e.ExecuteInstruction(in, cpu, mem)
	if err != nil {
		if e.trace != nil {
			e.trace.MemoryAccesses = e.trace.MemoryAccesses[:accesses]
		}
		return false, err
	}
	if e.trace != nil {
		e.trace.Instructions = append(e.trace.Instructions, instr)
		e.trace.RegisterStates = append(e.trace.RegisterStates, cpu.Registers())
	}
	return halt, nil
}

// ExecuteInstruction executes a single decoded instruction.
// It returns true when the program halted through the exit syscall.
func (e *Executor) ExecuteInstruction(in riscv.Instruction, cpu *CPUState, mem *Memory) (bool, error) {
	pc := cpu.PC()
	cycle := cpu.Cycles()

	switch i := in.(type) {
	case riscv.RegReg:
		rs1 := cpu.ReadRegister(i.Rs1)
		rs2 := cpu.ReadRegister(i.Rs2)
		var rdValue uint32
		switch i.Op {
		case riscv.OpAdd:
			rdValue = rs1 + rs2
		case riscv.OpSub:
			rdValue = rs1 - rs2
		case riscv.OpSll:
			rdValue = rs1 << (rs2 & 0x1F)
		case riscv.OpSlt:
			rdValue = b2u(int32(rs1) < int32(rs2))
		case riscv.OpSltu:
			rdValue = b2u(rs1 < rs2)
		case riscv.OpXor:
			rdValue = rs1 ^ rs2
		case riscv.OpSrl:
			rdValue = rs1 >> (rs2 & 0x1F)
		case riscv.OpSra:
			rdValue = uint32(int32(rs1) >> (rs2 & 0x1F))
		case riscv.OpOr:
			rdValue = rs1 | rs2
		case riscv.OpAnd:
			rdValue = rs1 & rs2
		default:
			return false, unsupported(in, pc)
		}
		cpu.WriteRegister(i.Rd, rdValue)
		cpu.IncrementPC()
	case riscv.RegImm:
		rs1 := cpu.ReadRegister(i.Rs1)
		imm := uint32(i.Imm)
		var rdValue uint32
		switch i.Op {
		case riscv.OpAddi:
			rdValue = rs1 + imm
		case riscv.OpSlti:
			rdValue = b2u(int32(rs1) < i.Imm)
		case riscv.OpSltiu:
			rdValue = b2u(rs1 < imm)
		case riscv.OpXori:
			rdValue = rs1 ^ imm
		case riscv.OpOri:
			rdValue = rs1 | imm
		case riscv.OpAndi:
			rdValue = rs1 & imm
		default:
			return false, unsupported(in, pc)
		}
		cpu.WriteRegister(i.Rd, rdValue)
		cpu.IncrementPC()
	case riscv.ShiftImm:
		rs1 := cpu.ReadRegister(i.Rs1)
		shamt := uint32(i.Shamt & 0x1F)
		var rdValue uint32
		switch i.Op {
		case riscv.OpSlli:
			rdValue = rs1 << shamt
		case riscv.OpSrli:
			rdValue = rs1 >> shamt
		case riscv.OpSrai:
			rdValue = uint32(int32(rs1) >> shamt)
		default:
			return false, unsupported(in, pc)
		}
		cpu.WriteRegister(i.Rd, rdValue)
		cpu.IncrementPC()
	case riscv.Load:
		addr := cpu.ReadRegister(i.Rs1) + uint32(i.Imm)
		var raw, rdValue uint32
		switch i.Op {
		case riscv.OpLb, riscv.OpLbu:
			v, err := mem.LoadByte(addr)
			if err != nil {
				return false, fmt.Errorf("%s at pc 0x%08x: %w", i.Op, pc, err)
			}
			raw = uint32(v)
			if i.Op == riscv.OpLb {
				rdValue = uint32(int8(v))
			} else {
				rdValue = raw
			}
		case riscv.OpLh, riscv.OpLhu:
			v, err := mem.LoadHalfword(addr)
			if err != nil {
				return false, fmt.Errorf("%s at pc 0x%08x: %w", i.Op, pc, err)
			}
			raw = uint32(v)
			if i.Op == riscv.OpLh {
				rdValue = uint32(int16(v))
			} else {
				rdValue = raw
			}
		case riscv.OpLw:
			v, err := mem.LoadWord(addr)
			if err != nil {
				return false, fmt.Errorf("%s at pc 0x%08x: %w", i.Op, pc, err)
			}
			raw, rdValue = v, v
		default:
			return false, unsupported(in, pc)
		}
		e.recordAccess(addr, raw, false, cycle)
		cpu.WriteRegister(i.Rd, rdValue)
		cpu.IncrementPC()
	case riscv.Store:
		addr := cpu.ReadRegister(i.Rs1) + uint32(i.Imm)
		value := cpu.ReadRegister(i.Rs2)
		var err error
		switch i.Op {
		case riscv.OpSb:
			value &= 0xFF
			err = mem.StoreByte(addr, uint8(value))
		case riscv.OpSh:
			value &= 0xFFFF
			err = mem.StoreHalfword(addr, uint16(value))
		case riscv.OpSw:
			err = mem.StoreWord(addr, value)
		default:
			return false, unsupported(in, pc)
		}
		if err != nil {
			return false, fmt.Errorf("%s at pc 0x%08x: %w", i.Op, pc, err)
		}
		e.recordAccess(addr, value, true, cycle)
		cpu.IncrementPC()
	case riscv.Branch:
		rs1 := cpu.ReadRegister(i.Rs1)
		rs2 := cpu.ReadRegister(i.Rs2)
		var taken bool
		switch i.Op {
		case riscv.OpBeq:
			taken = rs1 == rs2
		case riscv.OpBne:
			taken = rs1 != rs2
		case riscv.OpBlt:
			taken = int32(rs1) < int32(rs2)
		case riscv.OpBge:
			taken = int32(rs1) >= int32(rs2)
		case riscv.OpBltu:
			taken = rs1 < rs2
		case riscv.OpBgeu:
			taken = rs1 >= rs2
		default:
			return false, unsupported(in, pc)
		}
		if taken {
			cpu.SetPC(pc + uint32(i.Imm))
		} else {
			cpu.IncrementPC()
		}
	case riscv.Jal:
		cpu.WriteRegister(i.Rd, pc+riscv.InstrSize)
		cpu.SetPC(pc + uint32(i.Imm))
	case riscv.Jalr:
		// target is computed before rd is written, rd may equal rs1
		target := (cpu.ReadRegister(i.Rs1) + uint32(i.Imm)) &^ 1
		cpu.WriteRegister(i.Rd, pc+riscv.InstrSize)
		cpu.SetPC(target)
	case riscv.Lui:
		cpu.WriteRegister(i.Rd, uint32(i.Imm))
		cpu.IncrementPC()
	case riscv.Auipc:
		cpu.WriteRegister(i.Rd, pc+uint32(i.Imm))
		cpu.IncrementPC()
	case riscv.Ecall:
		halt, err := e.syscalls.HandleSyscall(cpu, mem)
		if err != nil {
			return false, fmt.Errorf("ecall at pc 0x%08x: %w", pc, err)
		}
		if halt {
			return true, nil
		}
		cpu.IncrementPC()
	case riscv.Ebreak:
		return false, fmt.Errorf("%w at pc 0x%08x", ErrBreakpoint, pc)
	default:
		return false, unsupported(in, pc)
	}
	return false, nil
}

func unsupported(in riscv.Instruction, pc uint32) error {
	return fmt.Errorf("%w: unsupported instruction %q at pc 0x%08x", ErrExecution, in, pc)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
