package cmd

import (
	"debug/elf"
	"fmt"

	cannon "github.com/ethereum-optimism/optimism/cannon/cmd"
	"github.com/urfave/cli/v2"

	"github.com/zkrisc/zkvm/rvgo/loader"
)

func LoadELF(ctx *cli.Context) error {
	elfPath := ctx.Path(LoadELFPathFlag.Name)
	elfProgram, err := elf.Open(elfPath)
	if err != nil {
		return fmt.Errorf("failed to open ELF file %q: %w", elfPath, err)
	}
	defer elfProgram.Close()
	program, err := loader.LoadELF(elfProgram)
	if err != nil {
		return fmt.Errorf("failed to load ELF data into program image: %w", err)
	}
	return cannon.WriteJSON(ctx.Path(LoadELFOutFlag.Name), program)
}

var LoadELFCommand = &cli.Command{
	Name:        "load-elf",
	Usage:       "Load ELF file into a JSON program image",
	Description: "Load a RISC-V ELF32 executable into a JSON program image, with its entry point, loadable segments and symbols",
	Action:      LoadELF,
	Flags: []cli.Flag{
		LoadELFPathFlag,
		LoadELFOutFlag,
	},
}
