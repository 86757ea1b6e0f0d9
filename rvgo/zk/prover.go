// Package zk is a placeholder proving backend for execution traces.
//
// Proofs are a MiMC commitment to the trace bound to a verifying key with keccak256.
// They are not zero-knowledge and not succinct: anyone holding the verifying key can
// produce a proof for any commitment. The package exists to exercise the proving
// pipeline end to end until a real backend replaces it.
package zk

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zkrisc/zkvm/rvgo/vm"
)

var ErrVerification = errors.New("verification error")

// proof data is commitment ‖ tag
const proofDataSize = 2 * common.HashLength

func proofTag(vk *VerifyingKey, commitment common.Hash, publicInputs []byte) common.Hash {
	return crypto.Keccak256Hash(vk.Key[:], commitment[:], publicInputs)
}

type Prover struct {
	pk *ProvingKey
}

var _ vm.Prover = (*Prover)(nil)

func NewProver(pk *ProvingKey) *Prover {
	return &Prover{pk: pk}
}

func (p *Prover) Prove(trace *vm.ExecutionTrace) (*vm.Proof, error) {
	if p.pk == nil {
		return nil, fmt.Errorf("%w: no proving key", vm.ErrProof)
	}
	commitment, err := Commit(trace)
	if err != nil {
		return nil, err
	}
	inputs := (&PublicInputs{
		Commitment: commitment,
		CycleCount: trace.CycleCount,
		Steps:      uint64(len(trace.Instructions)),
	}).Encode()
	tag := proofTag(&p.pk.VerifyingKey, commitment, inputs)

	data := make([]byte, 0, proofDataSize)
	data = append(data, commitment[:]...)
	data = append(data, tag[:]...)
	return &vm.Proof{Data: data, PublicInputs: inputs}, nil
}

type Verifier struct {
	vk *VerifyingKey
}

func NewVerifier(vk *VerifyingKey) *Verifier {
	return &Verifier{vk: vk}
}

// Verify checks proofData against publicInputs.
// Malformed input is an error; a well-formed proof that does not check out is (false, nil).
func (v *Verifier) Verify(proofData, publicInputs []byte) (bool, error) {
	if v.vk == nil {
		return false, fmt.Errorf("%w: no verifying key", ErrVerification)
	}
	if len(proofData) != proofDataSize {
		return false, fmt.Errorf("%w: proof must be %d bytes, got %d", ErrVerification, proofDataSize, len(proofData))
	}
	inputs, err := DecodePublicInputs(publicInputs)
	if err != nil {
		return false, err
	}
	commitment := common.BytesToHash(proofData[:common.HashLength])
	if commitment != inputs.Commitment {
		return false, nil
	}
	tag := common.BytesToHash(proofData[common.HashLength:])
	return tag == proofTag(v.vk, commitment, publicInputs), nil
}

// VerifyProof is Verify for a proof produced by Prover.
func (v *Verifier) VerifyProof(proof *vm.Proof) (bool, error) {
	if proof == nil {
		return false, fmt.Errorf("%w: nil proof", ErrVerification)
	}
	return v.Verify(proof.Data, proof.PublicInputs)
}
