package zk

import (
	"fmt"
	"hash"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/ethereum/go-ethereum/common"

	"github.com/zkrisc/zkvm/rvgo/vm"
)

// fieldWriter feeds integers to a MiMC hasher as canonical bn254 scalar field elements.
type fieldWriter struct {
	h   hash.Hash
	err error
}

func (w *fieldWriter) put(v uint64) {
	if w.err != nil {
		return
	}
	var e fr.Element
	e.SetUint64(v)
	b := e.Bytes()
	_, w.err = w.h.Write(b[:])
}

// Commit hashes every part of the trace into a single MiMC digest.
// Each word is absorbed as its own field element, in this order:
// cycle count, instruction count, then per step the instruction word and the 32 registers,
// then the access count and per access its address, value, direction and cycle.
func Commit(trace *vm.ExecutionTrace) (common.Hash, error) {
	if err := trace.Validate(); err != nil {
		return common.Hash{}, fmt.Errorf("%w: cannot commit to invalid trace: %w", vm.ErrProof, err)
	}
	w := &fieldWriter{h: mimc.NewMiMC()}
	w.put(trace.CycleCount)
	w.put(uint64(len(trace.Instructions)))
	for i, instr := range trace.Instructions {
		w.put(uint64(instr))
		for _, r := range trace.RegisterStates[i] {
			w.put(uint64(r))
		}
	}
	w.put(uint64(len(trace.MemoryAccesses)))
	for _, a := range trace.MemoryAccesses {
		w.put(uint64(a.Address))
		w.put(uint64(a.Value))
		if a.IsWrite {
			w.put(1)
		} else {
			w.put(0)
		}
		w.put(a.Cycle)
	}
	if w.err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to hash trace: %w", vm.ErrProof, w.err)
	}
	return common.BytesToHash(w.h.Sum(nil)), nil
}
