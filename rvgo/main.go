package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/zkrisc/zkvm/rvgo/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "zkvm"
	app.Usage = "RISC-V zkVM"
	app.Description = "Run RV32I programs, prove their execution and verify the proofs"
	app.Commands = []*cli.Command{
		cmd.ExecuteCommand,
		cmd.VerifyCommand,
		cmd.SetupCommand,
		cmd.LoadELFCommand,
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			<-c
			cancel()
			fmt.Println("\r\nExiting...")
		}
	}()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			_, _ = fmt.Fprintf(os.Stderr, "command interrupted")
			os.Exit(130)
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v", err)
			os.Exit(1)
		}
	}
}
