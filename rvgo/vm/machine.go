package vm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/zkrisc/zkvm/rvgo/riscv"
)

// VirtualMachine ties a CPU, memory, syscall handler and executor together.
// It is single threaded; the cycle budget is the only way to stop a running program.
type VirtualMachine struct {
	cfg Config
	log log.Logger

	cpu      *CPUState
	mem      *Memory
	syscalls *SyscallHandler
	exec     *Executor

	halted    bool
	lastTrace *ExecutionTrace
}

// Stats summarizes the machine state.
type Stats struct {
	PC         HexU32                      `json:"pc"`
	Cycles     uint64                      `json:"cycles"`
	MemorySize uint64                      `json:"memorySize"`
	Halted     bool                        `json:"halted"`
	ExitCode   uint32                      `json:"exitCode"`
	Registers  [riscv.RegisterCount]uint32 `json:"registers"`
}

func NewVirtualMachine(cfg Config, logger log.Logger, stdOut, stdErr io.Writer) (*VirtualMachine, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid vm config: %w", err)
	}
	if logger == nil {
		logger = log.Root()
	}
	syscalls := NewSyscallHandler(logger, stdOut, stdErr)
	return &VirtualMachine{
		cfg:      cfg,
		log:      logger,
		cpu:      NewCPUState(),
		mem:      NewMemory(cfg.MemorySize),
		syscalls: syscalls,
		exec:     NewExecutor(syscalls),
	}, nil
}

func (m *VirtualMachine) Config() Config { return m.cfg }
func (m *VirtualMachine) CPU() *CPUState { return m.cpu }
func (m *VirtualMachine) Memory() *Memory { return m.mem }
func (m *VirtualMachine) Halted() bool { return m.halted }

// LastTrace returns the trace of the most recent ExecuteWithProof run.
func (m *VirtualMachine) LastTrace() *ExecutionTrace { return m.lastTrace }

func (m *VirtualMachine) ExitCode() (uint32, bool) {
	return m.syscalls.ExitCode()
}

// LoadBinary copies data into memory at addr.
func (m *VirtualMachine) LoadBinary(addr uint32, data []byte) error {
	return m.mem.StoreBytes(addr, data)
}

// LoadProgram writes every segment of p and jumps to its entry point.
func (m *VirtualMachine) LoadProgram(p *Program) error {
	if p == nil {
		return fmt.Errorf("%w: nil program", ErrLoader)
	}
	for i, seg := range p.Segments {
		if err := m.mem.SetMemoryRange(seg.VirtualAddress, bytes.NewReader(seg.Data)); err != nil {
			return fmt.Errorf("%w: failed to load segment %d at 0x%08x: %w", ErrLoader, i, seg.VirtualAddress, err)
		}
	}
	m.SetPC(p.Entry)
	m.log.Debug("loaded program", "entry", HexU32(p.Entry), "segments", len(p.Segments), "size", p.Size())
	return nil
}

// SetPC sets the program counter. Like any jump, it counts a cycle.
func (m *VirtualMachine) SetPC(pc uint32) {
	m.cpu.SetPC(pc)
}

func (m *VirtualMachine) SetRegister(r riscv.Register, v uint32) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %d", riscv.ErrInvalidRegister, uint8(r))
	}
	m.cpu.WriteRegister(r, v)
	return nil
}

// Step runs a single cycle, unless the cycle budget is spent.
func (m *VirtualMachine) Step() (bool, error) {
	if m.halted {
		return true, nil
	}
	if m.cpu.Cycles() >= m.cfg.MaxCycles {
		return false, fmt.Errorf("%w: %d cycles at pc 0x%08x", ErrCycleLimit, m.cpu.Cycles(), m.cpu.PC())
	}
	halt, err := m.exec.ExecuteCycle(m.cpu, m.mem)
	if err != nil {
		return false, err
	}
	m.halted = halt
	return halt, nil
}

// Execute runs until the program exits or an error occurs.
func (m *VirtualMachine) Execute() error {
	startCycles := m.cpu.Cycles()
	for {
		halt, err := m.Step()
		if err != nil {
			return err
		}
		if halt {
			break
		}
	}
	m.log.Debug("execution finished", "pc", HexU32(m.cpu.PC()), "cycles", m.cpu.Cycles(), "executed", m.cpu.Cycles()-startCycles)
	return nil
}

// ExecuteWithProof runs the program while recording a trace, then hands the trace to prover.
func (m *VirtualMachine) ExecuteWithProof(prover Prover) (*Proof, error) {
	if !m.cfg.EnableProofs {
		return nil, ErrProofsDisabled
	}
	if prover == nil {
		return nil, fmt.Errorf("%w: no prover", ErrProof)
	}
	m.exec.StartTrace()
	err := m.Execute()
	trace := m.exec.StopTrace()
	if err != nil {
		return nil, err
	}
	trace.CycleCount = m.cpu.Cycles()
	if err := trace.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid trace: %w", ErrProof, err)
	}
	m.lastTrace = trace
	m.log.Info("proving execution", "cycles", trace.CycleCount, "steps", len(trace.Instructions), "accesses", len(trace.MemoryAccesses))
	proof, err := prover.Prove(trace)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProof, err)
	}
	return proof, nil
}

// Reset clears all registers, memory and exit status.
func (m *VirtualMachine) Reset() {
	m.cpu.Reset()
	m.mem.Clear()
	m.syscalls.Reset()
	m.exec.StopTrace()
	m.halted = false
	m.lastTrace = nil
}

func (m *VirtualMachine) Stats() Stats {
	code, _ := m.syscalls.ExitCode()
	return Stats{
		PC:         HexU32(m.cpu.PC()),
		Cycles:     m.cpu.Cycles(),
		MemorySize: m.mem.Size(),
		Halted:     m.halted,
		ExitCode:   code,
		Registers:  m.cpu.Registers(),
	}
}
