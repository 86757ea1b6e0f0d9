package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	cannon "github.com/ethereum-optimism/optimism/cannon/cmd"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/zkrisc/zkvm/rvgo/loader"
	"github.com/zkrisc/zkvm/rvgo/vm"
	"github.com/zkrisc/zkvm/rvgo/zk"
)

// loadConfig starts from the config file, if any, and applies explicitly set flags on top.
func loadConfig(ctx *cli.Context) (vm.Config, error) {
	cfg := vm.DefaultConfig()
	if path := ctx.Path(ExecuteConfigFlag.Name); path != "" {
		c, err := cannon.LoadJSON[vm.Config](path)
		if err != nil {
			return vm.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *c
	}
	if ctx.IsSet(ExecuteMaxCyclesFlag.Name) {
		cfg.MaxCycles = ctx.Uint64(ExecuteMaxCyclesFlag.Name)
	}
	if ctx.IsSet(ExecuteMemorySizeFlag.Name) {
		cfg.MemorySize = ctx.Uint64(ExecuteMemorySizeFlag.Name)
	}
	if ctx.Bool(ExecuteProveFlag.Name) {
		cfg.EnableProofs = true
	}
	return cfg, cfg.Check()
}

func Execute(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	lvl, err := parseLevel(ctx.String(LogLevelFlag.Name))
	if err != nil {
		return err
	}
	l := Logger(os.Stderr, lvl)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	program, err := loader.Open(ctx.Path(ExecuteFileFlag.Name))
	if err != nil {
		return err
	}

	var stdOut, stdErr io.Writer = os.Stdout, os.Stderr
	if ctx.Bool(LogProgramOutputFlag.Name) {
		stdOut = &LoggingWriter{Name: "stdout", Log: l}
		stdErr = &LoggingWriter{Name: "stderr", Log: l}
	}

	m, err := vm.NewVirtualMachine(cfg, l, stdOut, stdErr)
	if err != nil {
		return err
	}
	if err := m.LoadProgram(program); err != nil {
		return err
	}
	l.Info("loaded program",
		"entry", vm.HexU32(program.Entry),
		"segments", len(program.Segments),
		"size", program.Size(),
		"mem", m.Memory().Usage(),
	)

	start := time.Now()
	if cfg.EnableProofs {
		pk, err := zk.LoadProvingKey(ctx.Path(ExecuteProvingKeyFlag.Name))
		if err != nil {
			return err
		}
		proof, err := m.ExecuteWithProof(zk.NewProver(pk))
		if err != nil {
			return failure(l, m, program, err)
		}
		if err := cannon.WriteJSON(ctx.Path(ExecuteOutputFlag.Name), proof); err != nil {
			return fmt.Errorf("failed to write proof: %w", err)
		}
		l.Info("wrote proof", "path", ctx.Path(ExecuteOutputFlag.Name), "steps", len(m.LastTrace().Instructions))
	} else if err := run(ctx, l, m, program); err != nil {
		return err
	}

	code, _ := m.ExitCode()
	l.Info("execution complete",
		"cycles", m.CPU().Cycles(),
		"exit", code,
		"duration", time.Since(start),
	)

	if statePath := ctx.Path(ExecuteStateFlag.Name); statePath != "" {
		if err := cannon.WriteJSON(statePath, m.Stats()); err != nil {
			return fmt.Errorf("failed to write state output: %w", err)
		}
	}
	return nil
}

// run steps the machine until it halts, reporting progress and honoring cancellation.
func run(ctx *cli.Context, l log.Logger, m *vm.VirtualMachine, program *vm.Program) error {
	infoEvery := ctx.Uint64(ExecuteInfoEveryFlag.Name)
	start := time.Now()
	startCycles := m.CPU().Cycles()
	for step := uint64(0); ; step++ {
		if step%100 == 0 { // don't do the ctx err check (includes lock) too often
			if err := ctx.Context.Err(); err != nil {
				return err
			}
		}

		cycles := m.CPU().Cycles()
		if infoEvery != 0 && step != 0 && cycles%infoEvery == 0 {
			delta := time.Since(start)
			l.Info("processing",
				"cycles", cycles,
				"pc", vm.HexU32(m.CPU().PC()),
				"ips", float64(cycles-startCycles)/(float64(delta)/float64(time.Second)),
				"name", program.LookupSymbol(m.CPU().PC()),
			)
		}

		halt, err := m.Step()
		if err != nil {
			return failure(l, m, program, err)
		}
		if halt {
			return nil
		}
	}
}

func failure(l log.Logger, m *vm.VirtualMachine, program *vm.Program, err error) error {
	pc := m.CPU().PC()
	l.Error("execution failed",
		"pc", vm.HexU32(pc),
		"cycles", m.CPU().Cycles(),
		"name", program.LookupSymbol(pc),
		"err", err,
	)
	return fmt.Errorf("failed at cycle %d (PC: %08x): %w", m.CPU().Cycles(), pc, err)
}

var ExecuteCommand = &cli.Command{
	Name:        "execute",
	Usage:       "Run a RISC-V program, optionally proving its execution",
	Description: "Run a RISC-V program until it exits. With --prove, record an execution trace, prove it, and write the proof.",
	Action:      Execute,
	Flags: []cli.Flag{
		ExecuteFileFlag,
		ExecuteProveFlag,
		ExecuteOutputFlag,
		ExecuteProvingKeyFlag,
		ExecuteConfigFlag,
		ExecuteMaxCyclesFlag,
		ExecuteMemorySizeFlag,
		ExecuteStateFlag,
		ExecuteInfoEveryFlag,
		LogProgramOutputFlag,
		LogLevelFlag,
		PProfCPUFlag,
	},
}
