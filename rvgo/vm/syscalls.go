package vm

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/zkrisc/zkvm/rvgo/riscv"
)

// Syscalls services environment calls raised by ecall.
type Syscalls interface {
	HandleSyscall(cpu *CPUState, mem *Memory) (halt bool, err error)
}

type flusher interface {
	Flush() error
}

// SyscallHandler implements the Linux-style syscall ABI:
// a7 holds the number, a0-a2 the arguments, and a0 receives the result.
type SyscallHandler struct {
	log    log.Logger
	stdOut io.Writer
	stdErr io.Writer

	exitCode uint32
	exited   bool
}

var _ Syscalls = (*SyscallHandler)(nil)

func NewSyscallHandler(logger log.Logger, stdOut, stdErr io.Writer) *SyscallHandler {
	if logger == nil {
		logger = log.Root()
	}
	if stdOut == nil {
		stdOut = io.Discard
	}
	if stdErr == nil {
		stdErr = io.Discard
	}
	return &SyscallHandler{
		log:    logger,
		stdOut: stdOut,
		stdErr: stdErr,
	}
}

// ExitCode returns the code passed to exit, and whether exit was called.
func (h *SyscallHandler) ExitCode() (uint32, bool) {
	return h.exitCode, h.exited
}

func (h *SyscallHandler) Reset() {
	h.exitCode = 0
	h.exited = false
}

func (h *SyscallHandler) HandleSyscall(cpu *CPUState, mem *Memory) (bool, error) {
	a0 := cpu.ReadRegister(riscv.A0)
	a1 := cpu.ReadRegister(riscv.A1)
	a2 := cpu.ReadRegister(riscv.A2)

	switch num := cpu.ReadRegister(riscv.A7); num {
	case riscv.SysExit:
		h.log.Info("program exited", "code", a0, "cycles", cpu.Cycles())
		h.exitCode = a0
		h.exited = true
		return true, nil
	case riscv.SysWrite:
		fd, addr, count := a0, a1, a2
		var out io.Writer
		switch fd {
		case riscv.FdStdout:
			out = h.stdOut
		case riscv.FdStderr:
			out = h.stdErr
		default:
			return false, fmt.Errorf("%w: write to unsupported fd %d", ErrSyscall, fd)
		}
		r, err := mem.ReadMemoryRange(addr, uint64(count))
		if err != nil {
			return false, fmt.Errorf("%w: write buffer: %w", ErrSyscall, err)
		}
		if _, err := io.Copy(out, r); err != nil {
			return false, fmt.Errorf("%w: fd %d writing err: %w", ErrSyscall, fd, err)
		}
		if f, ok := out.(flusher); ok {
			if err := f.Flush(); err != nil {
				return false, fmt.Errorf("%w: fd %d flush err: %w", ErrSyscall, fd, err)
			}
		}
		cpu.WriteRegister(riscv.A0, count) // write completes fully in a single step
		return false, nil
	case riscv.SysRead:
		if a0 != riscv.FdStdin {
			return false, fmt.Errorf("%w: read from unsupported fd %d", ErrSyscall, a0)
		}
		// stdin is always at EOF
		cpu.WriteRegister(riscv.A0, 0)
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown syscall %d", ErrSyscall, num)
	}
}
