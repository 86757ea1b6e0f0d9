package vm

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ethereum-optimism/optimism/op-service/testlog"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/zkrisc/zkvm/rvgo/riscv"
)

// assemble encodes instructions into a little-endian code image.
func assemble(t *testing.T, instrs ...riscv.Instruction) []byte {
	t.Helper()
	out := make([]byte, 0, len(instrs)*riscv.InstrSize)
	for _, in := range instrs {
		w, err := riscv.Encode(in)
		require.NoError(t, err, in.String())
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

type testEnv struct {
	cpu    *CPUState
	mem    *Memory
	sys    *SyscallHandler
	exec   *Executor
	stdOut *bytes.Buffer
	stdErr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	var stdOut, stdErr bytes.Buffer
	sys := NewSyscallHandler(testlog.Logger(t, log.LevelInfo), &stdOut, &stdErr)
	return &testEnv{
		cpu:    NewCPUState(),
		mem:    NewMemory(1 << 16),
		sys:    sys,
		exec:   NewExecutor(sys),
		stdOut: &stdOut,
		stdErr: &stdErr,
	}
}

func (e *testEnv) exe(t *testing.T, in riscv.Instruction) (bool, error) {
	t.Helper()
	return e.exec.ExecuteInstruction(in, e.cpu, e.mem)
}

func TestExecuteArithmetic(t *testing.T) {
	cases := []struct {
		name string
		in   riscv.Instruction
		rs1  uint32
		rs2  uint32
		want uint32
	}{
		{"add wraps", riscv.RegReg{Op: riscv.OpAdd, Rd: 3, Rs1: 1, Rs2: 2}, 0xFFFFFFFF, 1, 0},
		{"sub wraps", riscv.RegReg{Op: riscv.OpSub, Rd: 3, Rs1: 1, Rs2: 2}, 0, 1, 0xFFFFFFFF},
		{"sll masks shift", riscv.RegReg{Op: riscv.OpSll, Rd: 3, Rs1: 1, Rs2: 2}, 1, 33, 2},
		{"slt signed", riscv.RegReg{Op: riscv.OpSlt, Rd: 3, Rs1: 1, Rs2: 2}, 0xFFFFFFFF, 0, 1},
		{"sltu unsigned", riscv.RegReg{Op: riscv.OpSltu, Rd: 3, Rs1: 1, Rs2: 2}, 0xFFFFFFFF, 0, 0},
		{"xor", riscv.RegReg{Op: riscv.OpXor, Rd: 3, Rs1: 1, Rs2: 2}, 0xF0F0, 0xFF00, 0x0FF0},
		{"srl", riscv.RegReg{Op: riscv.OpSrl, Rd: 3, Rs1: 1, Rs2: 2}, 0x80000000, 31, 1},
		{"sra", riscv.RegReg{Op: riscv.OpSra, Rd: 3, Rs1: 1, Rs2: 2}, 0x80000000, 31, 0xFFFFFFFF},
		{"or", riscv.RegReg{Op: riscv.OpOr, Rd: 3, Rs1: 1, Rs2: 2}, 0xF0, 0x0F, 0xFF},
		{"and", riscv.RegReg{Op: riscv.OpAnd, Rd: 3, Rs1: 1, Rs2: 2}, 0xF0, 0x3C, 0x30},
		{"addi negative", riscv.RegImm{Op: riscv.OpAddi, Rd: 3, Rs1: 1, Imm: -1}, 0, 0, 0xFFFFFFFF},
		{"slti", riscv.RegImm{Op: riscv.OpSlti, Rd: 3, Rs1: 1, Imm: -1}, 0xFFFFFFFE, 0, 1},
		{"sltiu sign extends imm", riscv.RegImm{Op: riscv.OpSltiu, Rd: 3, Rs1: 1, Imm: -1}, 5, 0, 1},
		{"xori", riscv.RegImm{Op: riscv.OpXori, Rd: 3, Rs1: 1, Imm: -1}, 0x0F, 0, 0xFFFFFFF0},
		{"ori", riscv.RegImm{Op: riscv.OpOri, Rd: 3, Rs1: 1, Imm: 0x100}, 1, 0, 0x101},
		{"andi", riscv.RegImm{Op: riscv.OpAndi, Rd: 3, Rs1: 1, Imm: 0xFF}, 0x1234, 0, 0x34},
		{"slli", riscv.ShiftImm{Op: riscv.OpSlli, Rd: 3, Rs1: 1, Shamt: 4}, 0x0F, 0, 0xF0},
		{"srli", riscv.ShiftImm{Op: riscv.OpSrli, Rd: 3, Rs1: 1, Shamt: 4}, 0xF0000000, 0, 0x0F000000},
		{"srai", riscv.ShiftImm{Op: riscv.OpSrai, Rd: 3, Rs1: 1, Shamt: 4}, 0xF0000000, 0, 0xFF000000},
		{"lui", riscv.Lui{Rd: 3, Imm: 0x12345000}, 0, 0, 0x12345000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.cpu.SetPC(0x100)
			env.cpu.WriteRegister(1, tc.rs1)
			env.cpu.WriteRegister(2, tc.rs2)
			halt, err := env.exe(t, tc.in)
			require.NoError(t, err)
			require.False(t, halt)
			require.Equal(t, tc.want, env.cpu.ReadRegister(3))
			require.Equal(t, uint32(0x104), env.cpu.PC())
			require.Equal(t, uint64(2), env.cpu.Cycles())
		})
	}
}

func TestExecuteZeroRegister(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.exe(t, riscv.RegImm{Op: riscv.OpAddi, Rd: riscv.Zero, Rs1: riscv.Zero, Imm: 5})
	require.NoError(t, err)
	_, err = env.exe(t, riscv.Lui{Rd: riscv.Zero, Imm: 0x1000})
	require.NoError(t, err)
	_, err = env.exe(t, riscv.Jal{Rd: riscv.Zero, Imm: 8})
	require.NoError(t, err)
	require.Equal(t, uint32(0), env.cpu.ReadRegister(riscv.Zero))
}

func TestExecuteAuipc(t *testing.T) {
	env := newTestEnv(t)
	env.cpu.SetPC(0x2000)
	_, err := env.exe(t, riscv.Auipc{Rd: 5, Imm: -4096})
	require.NoError(t, err)
	require.Equal(t, uint32(0x1000), env.cpu.ReadRegister(5))
}

func TestExecuteBranch(t *testing.T) {
	cases := []struct {
		op       riscv.Op
		rs1, rs2 uint32
		taken    bool
	}{
		{riscv.OpBeq, 7, 7, true},
		{riscv.OpBeq, 7, 8, false},
		{riscv.OpBne, 7, 8, true},
		{riscv.OpBne, 7, 7, false},
		{riscv.OpBlt, 0xFFFFFFFF, 0, true},
		{riscv.OpBlt, 0, 0xFFFFFFFF, false},
		{riscv.OpBge, 0, 0xFFFFFFFF, true},
		{riscv.OpBge, 5, 5, true},
		{riscv.OpBltu, 0, 0xFFFFFFFF, true},
		{riscv.OpBltu, 0xFFFFFFFF, 0, false},
		{riscv.OpBgeu, 0xFFFFFFFF, 0, true},
		{riscv.OpBgeu, 0, 1, false},
	}
	for _, tc := range cases {
		for _, imm := range []int32{-16, 64} {
			env := newTestEnv(t)
			env.cpu.SetPC(0x1000)
			env.cpu.WriteRegister(1, tc.rs1)
			env.cpu.WriteRegister(2, tc.rs2)
			_, err := env.exe(t, riscv.Branch{Op: tc.op, Rs1: 1, Rs2: 2, Imm: imm})
			require.NoError(t, err)
			if tc.taken {
				require.Equal(t, 0x1000+uint32(imm), env.cpu.PC(), "%s %d", tc.op, imm)
			} else {
				require.Equal(t, uint32(0x1004), env.cpu.PC(), "%s %d", tc.op, imm)
			}
			// taken or not, a branch costs exactly one cycle
			require.Equal(t, uint64(2), env.cpu.Cycles())
		}
	}
}

func TestExecuteJumps(t *testing.T) {
	t.Run("jal", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x1000)
		_, err := env.exe(t, riscv.Jal{Rd: riscv.RA, Imm: -8})
		require.NoError(t, err)
		require.Equal(t, uint32(0x0FF8), env.cpu.PC())
		require.Equal(t, uint32(0x1004), env.cpu.ReadRegister(riscv.RA))
		require.Equal(t, uint64(2), env.cpu.Cycles())
	})
	t.Run("jalr clears low bit", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x1000)
		env.cpu.WriteRegister(5, 0x2000)
		_, err := env.exe(t, riscv.Jalr{Rd: riscv.RA, Rs1: 5, Imm: 3})
		require.NoError(t, err)
		require.Equal(t, uint32(0x2002), env.cpu.PC())
		require.Equal(t, uint32(0x1004), env.cpu.ReadRegister(riscv.RA))
	})
	t.Run("jalr with rd equal to rs1", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x1000)
		env.cpu.WriteRegister(5, 0x3000)
		_, err := env.exe(t, riscv.Jalr{Rd: 5, Rs1: 5, Imm: 0})
		require.NoError(t, err)
		require.Equal(t, uint32(0x3000), env.cpu.PC())
		require.Equal(t, uint32(0x1004), env.cpu.ReadRegister(5))
	})
}

func TestExecuteLoadStore(t *testing.T) {
	env := newTestEnv(t)
	env.cpu.WriteRegister(1, 0x800)
	env.cpu.WriteRegister(2, 0xDEADBEEF)

	for _, st := range []riscv.Op{riscv.OpSw, riscv.OpSh, riscv.OpSb} {
		require.NoError(t, env.mem.StoreWord(0x7FC, 0))
		_, err := env.exe(t, riscv.Store{Op: st, Rs1: 1, Rs2: 2, Imm: -4})
		require.NoError(t, err)
		v, err := env.mem.LoadWord(0x7FC)
		require.NoError(t, err)
		switch st {
		case riscv.OpSw:
			require.Equal(t, uint32(0xDEADBEEF), v)
		case riscv.OpSh:
			require.Equal(t, uint32(0xBEEF), v)
		case riscv.OpSb:
			require.Equal(t, uint32(0xEF), v)
		}
	}

	require.NoError(t, env.mem.StoreWord(0x800, 0x8081F2F3))
	loads := []struct {
		op   riscv.Op
		imm  int32
		want uint32
	}{
		{riscv.OpLw, 0, 0x8081F2F3},
		{riscv.OpLh, 0, 0xFFFFF2F3},
		{riscv.OpLhu, 0, 0xF2F3},
		{riscv.OpLh, 2, 0xFFFF8081},
		{riscv.OpLb, 0, 0xFFFFFFF3},
		{riscv.OpLbu, 0, 0xF3},
		{riscv.OpLbu, 2, 0x81},
	}
	for _, l := range loads {
		_, err := env.exe(t, riscv.Load{Op: l.op, Rd: 3, Rs1: 1, Imm: l.imm})
		require.NoError(t, err)
		require.Equal(t, l.want, env.cpu.ReadRegister(3), "%s %d", l.op, l.imm)
	}
}

func TestExecuteFailuresKeepState(t *testing.T) {
	t.Run("load out of range", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x40)
		env.cpu.WriteRegister(1, 0xFFFFFFF0)
		env.cpu.WriteRegister(3, 99)
		_, err := env.exe(t, riscv.Load{Op: riscv.OpLw, Rd: 3, Rs1: 1, Imm: 0})
		require.ErrorIs(t, err, ErrMemoryViolation)
		require.Equal(t, uint32(99), env.cpu.ReadRegister(3))
		require.Equal(t, uint32(0x40), env.cpu.PC())
		require.Equal(t, uint64(1), env.cpu.Cycles())
	})
	t.Run("store out of range", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.WriteRegister(1, 1<<16-2)
		_, err := env.exe(t, riscv.Store{Op: riscv.OpSw, Rs1: 1, Rs2: 0, Imm: 0})
		require.ErrorIs(t, err, ErrMemoryViolation)
		require.Equal(t, uint32(0), env.cpu.PC())
	})
	t.Run("ebreak", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x40)
		_, err := env.exe(t, riscv.Ebreak{})
		require.ErrorIs(t, err, ErrBreakpoint)
		require.ErrorIs(t, err, ErrExecution)
		require.Equal(t, uint32(0x40), env.cpu.PC())
	})
	t.Run("unknown syscall", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x40)
		env.cpu.WriteRegister(riscv.A7, 222)
		halt, err := env.exe(t, riscv.Ecall{})
		require.False(t, halt)
		require.ErrorIs(t, err, ErrSyscall)
		require.Equal(t, uint32(0x40), env.cpu.PC())
		require.Equal(t, uint64(1), env.cpu.Cycles())
	})
	t.Run("invalid instruction word", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.mem.StoreWord(0, 0xFFFFFFFF))
		_, err := env.exec.ExecuteCycle(env.cpu, env.mem)
		require.ErrorIs(t, err, riscv.ErrInvalidInstruction)
		require.Equal(t, uint32(0), env.cpu.PC())
	})
	t.Run("fetch out of range", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(1 << 16)
		_, err := env.exec.ExecuteCycle(env.cpu, env.mem)
		require.ErrorIs(t, err, ErrMemoryViolation)
	})
}

func TestSyscalls(t *testing.T) {
	t.Run("write stdout and stderr", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.mem.StoreBytes(0x200, []byte("hi there")))
		for _, fd := range []uint32{riscv.FdStdout, riscv.FdStderr} {
			env.cpu.WriteRegister(riscv.A7, riscv.SysWrite)
			env.cpu.WriteRegister(riscv.A0, fd)
			env.cpu.WriteRegister(riscv.A1, 0x200)
			env.cpu.WriteRegister(riscv.A2, 8)
			pc := env.cpu.PC()
			halt, err := env.exe(t, riscv.Ecall{})
			require.NoError(t, err)
			require.False(t, halt)
			require.Equal(t, uint32(8), env.cpu.ReadRegister(riscv.A0))
			require.Equal(t, pc+4, env.cpu.PC())
		}
		require.Equal(t, "hi there", env.stdOut.String())
		require.Equal(t, "hi there", env.stdErr.String())
	})
	t.Run("write bad fd", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.WriteRegister(riscv.A7, riscv.SysWrite)
		env.cpu.WriteRegister(riscv.A0, 3)
		_, err := env.exe(t, riscv.Ecall{})
		require.ErrorIs(t, err, ErrSyscall)
	})
	t.Run("write buffer out of range", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.WriteRegister(riscv.A7, riscv.SysWrite)
		env.cpu.WriteRegister(riscv.A0, riscv.FdStdout)
		env.cpu.WriteRegister(riscv.A1, 1<<16-4)
		env.cpu.WriteRegister(riscv.A2, 8)
		_, err := env.exe(t, riscv.Ecall{})
		require.ErrorIs(t, err, ErrSyscall)
		require.ErrorIs(t, err, ErrMemoryViolation)
		require.Equal(t, uint32(riscv.FdStdout), env.cpu.ReadRegister(riscv.A0))
		require.Zero(t, env.stdOut.Len())
	})
	t.Run("read stdin", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.WriteRegister(riscv.A7, riscv.SysRead)
		env.cpu.WriteRegister(riscv.A0, riscv.FdStdin)
		env.cpu.WriteRegister(riscv.A2, 16)
		halt, err := env.exe(t, riscv.Ecall{})
		require.NoError(t, err)
		require.False(t, halt)
		require.Equal(t, uint32(0), env.cpu.ReadRegister(riscv.A0))

		env.cpu.WriteRegister(riscv.A0, 4)
		_, err = env.exe(t, riscv.Ecall{})
		require.ErrorIs(t, err, ErrSyscall)
	})
	t.Run("exit", func(t *testing.T) {
		env := newTestEnv(t)
		env.cpu.SetPC(0x40)
		env.cpu.WriteRegister(riscv.A7, riscv.SysExit)
		env.cpu.WriteRegister(riscv.A0, 3)
		halt, err := env.exe(t, riscv.Ecall{})
		require.NoError(t, err)
		require.True(t, halt)
		require.Equal(t, uint32(0x40), env.cpu.PC())
		require.Equal(t, uint64(1), env.cpu.Cycles())
		code, exited := env.sys.ExitCode()
		require.True(t, exited)
		require.Equal(t, uint32(3), code)

		env.sys.Reset()
		_, exited = env.sys.ExitCode()
		require.False(t, exited)
	})
}

func TestExecutorTrace(t *testing.T) {
	env := newTestEnv(t)
	code := assemble(t,
		riscv.RegImm{Op: riscv.OpAddi, Rd: 1, Rs1: 0, Imm: 0x300},
		riscv.RegImm{Op: riscv.OpAddi, Rd: 2, Rs1: 0, Imm: 77},
		riscv.Store{Op: riscv.OpSw, Rs1: 1, Rs2: 2, Imm: 4},
		riscv.Load{Op: riscv.OpLbu, Rd: 3, Rs1: 1, Imm: 4},
	)
	require.NoError(t, env.mem.StoreBytes(0, code))

	require.Nil(t, env.exec.StopTrace())
	env.exec.StartTrace()
	for i := 0; i < 4; i++ {
		_, err := env.exec.ExecuteCycle(env.cpu, env.mem)
		require.NoError(t, err)
	}
	trace := env.exec.StopTrace()
	require.NotNil(t, trace)
	trace.CycleCount = env.cpu.Cycles()
	require.NoError(t, trace.Validate())

	require.Len(t, trace.Instructions, 4)
	require.Equal(t, binary.LittleEndian.Uint32(code[8:]), trace.Instructions[2])
	require.Len(t, trace.RegisterStates, 4)
	require.Equal(t, uint32(0x300), trace.RegisterStates[0][1])
	require.Equal(t, uint32(77), trace.RegisterStates[3][3])
	require.Equal(t, []MemoryAccess{
		{Address: 0x304, Value: 77, IsWrite: true, Cycle: 2},
		{Address: 0x304, Value: 77, IsWrite: false, Cycle: 3},
	}, trace.MemoryAccesses)

	// recording stopped
	_, err := env.exec.ExecuteCycle(env.cpu, env.mem)
	require.Error(t, err) // zeroed memory is not a valid instruction
	require.Nil(t, env.exec.StopTrace())
}

func TestTraceValidate(t *testing.T) {
	var nilTrace *ExecutionTrace
	require.Error(t, nilTrace.Validate())
	require.NoError(t, (&ExecutionTrace{}).Validate())

	require.Error(t, (&ExecutionTrace{Instructions: []uint32{0x13}}).Validate())

	bad := &ExecutionTrace{
		Instructions:   []uint32{0x13},
		RegisterStates: [][riscv.RegisterCount]uint32{{1}},
	}
	require.Error(t, bad.Validate())

	require.Error(t, (&ExecutionTrace{
		MemoryAccesses: []MemoryAccess{{Cycle: 2}, {Cycle: 1}},
		CycleCount:     5,
	}).Validate())
	require.Error(t, (&ExecutionTrace{
		MemoryAccesses: []MemoryAccess{{Cycle: 6}},
		CycleCount:     5,
	}).Validate())
}
