package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/zkrisc/zkvm/rvgo/vm"
)

var (
	ExecuteFileFlag = &cli.PathFlag{
		Name:      "file",
		Usage:     "path of the program to run: a RISC-V ELF32 executable, or a JSON program image (.json)",
		TakesFile: true,
		Required:  true,
	}
	ExecuteProveFlag = &cli.BoolFlag{
		Name:  "prove",
		Usage: "record an execution trace and prove it",
	}
	ExecuteOutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "path to write the proof to. '-' for stdout",
		TakesFile: true,
		Value:     "proof.json",
	}
	ExecuteProvingKeyFlag = &cli.PathFlag{
		Name:      "pkey",
		Usage:     "path of the proving key, as written by the setup command",
		TakesFile: true,
		Value:     "proving_key.json",
	}
	ExecuteConfigFlag = &cli.PathFlag{
		Name:      "config",
		Usage:     "path of a JSON VM config. Other flags override its fields",
		TakesFile: true,
	}
	ExecuteMaxCyclesFlag = &cli.Uint64Flag{
		Name:  "max-cycles",
		Usage: "cycle budget of the program",
		Value: vm.DefaultMaxCycles,
	}
	ExecuteMemorySizeFlag = &cli.Uint64Flag{
		Name:  "memory-size",
		Usage: "size of the flat memory, in bytes",
		Value: vm.DefaultMemorySize,
	}
	ExecuteStateFlag = &cli.PathFlag{
		Name:      "state",
		Usage:     "path to write the final VM state to. '-' for stdout",
		TakesFile: true,
	}
	ExecuteInfoEveryFlag = &cli.Uint64Flag{
		Name:  "info-every",
		Usage: "log progress every this many cycles. 0 to disable",
		Value: 1_000_000,
	}
	LogProgramOutputFlag = &cli.BoolFlag{
		Name:  "log.program-output",
		Usage: "route the program's stdout and stderr through the logger",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level: debug, info, warn or error",
		Value: "info",
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "enable pprof cpu profiling",
	}

	VerifyProofFlag = &cli.PathFlag{
		Name:      "proof",
		Usage:     "path of the proof to verify",
		TakesFile: true,
		Required:  true,
	}
	VerifyVerifyingKeyFlag = &cli.PathFlag{
		Name:      "vkey",
		Usage:     "path of the verifying key",
		TakesFile: true,
		Value:     "verifying_key.json",
	}

	SetupOutputFlag = &cli.PathFlag{
		Name:  "output",
		Usage: "directory to write the key pair to",
		Value: ".",
	}
	SetupSeedFlag = &cli.StringFlag{
		Name:  "seed",
		Usage: "hex seed to derive the keys from. Random if omitted",
	}

	LoadELFPathFlag = &cli.PathFlag{
		Name:      "path",
		Usage:     "path of the RISC-V ELF32 executable to convert",
		TakesFile: true,
		Required:  true,
	}
	LoadELFOutFlag = &cli.PathFlag{
		Name:      "out",
		Usage:     "path to write the JSON program image to. '-' for stdout",
		TakesFile: true,
		Value:     "program.json",
	}
)
