package vm

import (
	"errors"
	"fmt"
)

var (
	ErrMemoryViolation = errors.New("memory access violation")
	ErrSyscall         = errors.New("syscall error")
	ErrExecution       = errors.New("execution error")
	ErrLoader          = errors.New("loader error")
	ErrProof           = errors.New("proof error")

	ErrBreakpoint     = fmt.Errorf("%w: breakpoint", ErrExecution)
	ErrCycleLimit     = fmt.Errorf("%w: cycle limit exceeded", ErrExecution)
	ErrProofsDisabled = fmt.Errorf("%w: proofs are not enabled", ErrProof)
)

// MemoryViolationError is returned for any access that does not fit in memory.
type MemoryViolationError struct {
	Addr  uint32
	Width uint64
	Size  uint64
}

func (e *MemoryViolationError) Error() string {
	return fmt.Sprintf("%v: %d bytes at 0x%08x (memory size %d)", ErrMemoryViolation, e.Width, e.Addr, e.Size)
}

func (e *MemoryViolationError) Unwrap() error {
	return ErrMemoryViolation
}
