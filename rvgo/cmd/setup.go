package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/zkrisc/zkvm/rvgo/zk"
)

func Setup(ctx *cli.Context) error {
	l := Logger(os.Stderr, log.LevelInfo)

	var seed []byte
	if s := ctx.String(SetupSeedFlag.Name); s != "" {
		b, err := hexutil.Decode(s)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", s, err)
		}
		seed = b
	}
	pk, vk, err := zk.Setup(seed)
	if err != nil {
		return err
	}
	dir := ctx.Path(SetupOutputFlag.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := zk.WriteKeys(dir, pk, vk); err != nil {
		return err
	}
	l.Info("generated keys", "dir", dir, "vkey", vk.Key)
	return nil
}

var SetupCommand = &cli.Command{
	Name:        "setup",
	Usage:       "Generate a proving and verifying key pair",
	Description: "Generate a proving and verifying key pair, written as " + zk.ProvingKeyFile + " and " + zk.VerifyingKeyFile + " in the output directory.",
	Action:      Setup,
	Flags: []cli.Flag{
		SetupOutputFlag,
		SetupSeedFlag,
	},
}
