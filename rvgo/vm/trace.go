package vm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/zkrisc/zkvm/rvgo/riscv"
)

// MemoryAccess is one data load or store performed while tracing.
type MemoryAccess struct {
	Address uint32 `json:"address"`
	Value   uint32 `json:"value"`
	IsWrite bool   `json:"isWrite"`
	Cycle   uint64 `json:"cycle"`
}

// ExecutionTrace is the record of an execution handed to a Prover.
// RegisterStates[i] is the register file after Instructions[i] executed.
type ExecutionTrace struct {
	Instructions   []uint32                      `json:"instructions"`
	RegisterStates [][riscv.RegisterCount]uint32 `json:"registerStates"`
	MemoryAccesses []MemoryAccess                `json:"memoryAccesses"`
	CycleCount     uint64                        `json:"cycleCount"`
}

// Validate checks the structural invariants of the trace.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("nil trace")
	}
	if len(t.Instructions) != len(t.RegisterStates) {
		return fmt.Errorf("trace has %d instructions but %d register states", len(t.Instructions), len(t.RegisterStates))
	}
	for i, regs := range t.RegisterStates {
		if regs[riscv.Zero] != 0 {
			return fmt.Errorf("register state %d has non-zero x0", i)
		}
	}
	var last uint64
	for i, a := range t.MemoryAccesses {
		if a.Cycle < last {
			return fmt.Errorf("memory access %d at cycle %d is before previous access at cycle %d", i, a.Cycle, last)
		}
		if a.Cycle > t.CycleCount {
			return fmt.Errorf("memory access %d at cycle %d is beyond cycle count %d", i, a.Cycle, t.CycleCount)
		}
		last = a.Cycle
	}
	return nil
}

// Proof is the opaque output of a Prover.
type Proof struct {
	Data         hexutil.Bytes `json:"data"`
	PublicInputs hexutil.Bytes `json:"publicInputs"`
}

// Prover turns an execution trace into a proof.
type Prover interface {
	Prove(trace *ExecutionTrace) (*Proof, error)
}
