package cmd

import (
	"errors"
	"fmt"
	"os"

	cannon "github.com/ethereum-optimism/optimism/cannon/cmd"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/zkrisc/zkvm/rvgo/vm"
	"github.com/zkrisc/zkvm/rvgo/zk"
)

var ErrInvalidProof = errors.New("proof is invalid")

func Verify(ctx *cli.Context) error {
	l := Logger(os.Stderr, log.LevelInfo)

	proofPath := ctx.Path(VerifyProofFlag.Name)
	proof, err := cannon.LoadJSON[vm.Proof](proofPath)
	if err != nil {
		return fmt.Errorf("failed to load proof: %w", err)
	}
	vk, err := zk.LoadVerifyingKey(ctx.Path(VerifyVerifyingKeyFlag.Name))
	if err != nil {
		return err
	}
	ok, err := zk.NewVerifier(vk).VerifyProof(proof)
	if err != nil {
		return err
	}
	if !ok {
		l.Error("proof rejected", "proof", proofPath)
		return ErrInvalidProof
	}
	inputs, err := zk.DecodePublicInputs(proof.PublicInputs)
	if err != nil {
		return err
	}
	l.Info("proof verified",
		"proof", proofPath,
		"commitment", inputs.Commitment,
		"cycles", inputs.CycleCount,
		"steps", inputs.Steps,
	)
	return nil
}

var VerifyCommand = &cli.Command{
	Name:        "verify",
	Usage:       "Verify a proof produced by execute --prove",
	Description: "Verify a proof against a verifying key. Exits with an error if the proof is malformed or does not verify.",
	Action:      Verify,
	Flags: []cli.Flag{
		VerifyProofFlag,
		VerifyVerifyingKeyFlag,
	},
}
