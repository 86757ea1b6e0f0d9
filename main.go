package main

import (
	"encoding/binary"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/zkrisc/zkvm/rvgo/riscv"
	"github.com/zkrisc/zkvm/rvgo/vm"
	"github.com/zkrisc/zkvm/rvgo/zk"
)

const entry = 0x1000

func main() {
	l := log.NewLogger(log.LogfmtHandlerWithLevel(os.Stderr, log.LevelInfo))

	// x10 = 10 + 32, then exit with x10 as the exit code
	var code []byte
	for _, in := range []riscv.Instruction{
		riscv.RegImm{Op: riscv.OpAddi, Rd: riscv.RA, Rs1: riscv.Zero, Imm: 10},
		riscv.RegImm{Op: riscv.OpAddi, Rd: riscv.SP, Rs1: riscv.Zero, Imm: 32},
		riscv.RegReg{Op: riscv.OpAdd, Rd: riscv.GP, Rs1: riscv.RA, Rs2: riscv.SP},
		riscv.RegImm{Op: riscv.OpAddi, Rd: riscv.A0, Rs1: riscv.GP, Imm: 0},
		riscv.RegImm{Op: riscv.OpAddi, Rd: riscv.A7, Rs1: riscv.Zero, Imm: riscv.SysExit},
		riscv.Ecall{},
	} {
		w, err := riscv.Encode(in)
		if err != nil {
			l.Crit("failed to encode instruction", "instr", in, "err", err)
		}
		code = binary.LittleEndian.AppendUint32(code, w)
	}

	cfg := vm.DefaultConfig()
	cfg.EnableProofs = true
	m, err := vm.NewVirtualMachine(cfg, l, os.Stdout, os.Stderr)
	if err != nil {
		l.Crit("failed to create VM", "err", err)
	}
	if err := m.LoadProgram(&vm.Program{
		Entry:    entry,
		Segments: []vm.Segment{{VirtualAddress: entry, Data: code}},
	}); err != nil {
		l.Crit("failed to load program", "err", err)
	}

	pk, vk, err := zk.Setup([]byte("example"))
	if err != nil {
		l.Crit("failed to generate keys", "err", err)
	}
	proof, err := m.ExecuteWithProof(zk.NewProver(pk))
	if err != nil {
		l.Crit("failed to execute", "err", err)
	}
	l.Info("executed", "x10", m.CPU().ReadRegister(riscv.A0), "cycles", m.CPU().Cycles())

	ok, err := zk.NewVerifier(vk).VerifyProof(proof)
	if err != nil {
		l.Crit("failed to verify proof", "err", err)
	}
	inputs, err := zk.DecodePublicInputs(proof.PublicInputs)
	if err != nil {
		l.Crit("failed to decode public inputs", "err", err)
	}
	l.Info("verified", "valid", ok, "commitment", inputs.Commitment, "steps", inputs.Steps)
}
