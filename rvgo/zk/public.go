package zk

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const publicInputsSize = 3 * 32

// PublicInputs are the statement a proof is about.
type PublicInputs struct {
	Commitment common.Hash
	CycleCount uint64
	Steps      uint64
}

// Encode lays the inputs out as three 32 byte big-endian words.
func (p *PublicInputs) Encode() []byte {
	out := make([]byte, 0, publicInputsSize)
	out = append(out, p.Commitment[:]...)
	cycles := uint256.NewInt(p.CycleCount).Bytes32()
	out = append(out, cycles[:]...)
	steps := uint256.NewInt(p.Steps).Bytes32()
	out = append(out, steps[:]...)
	return out
}

func DecodePublicInputs(dat []byte) (*PublicInputs, error) {
	if len(dat) != publicInputsSize {
		return nil, fmt.Errorf("%w: public inputs must be %d bytes, got %d", ErrVerification, publicInputsSize, len(dat))
	}
	var out PublicInputs
	copy(out.Commitment[:], dat[:32])

	var word uint256.Int
	word.SetBytes32(dat[32:64])
	if !word.IsUint64() {
		return nil, fmt.Errorf("%w: cycle count %s out of range", ErrVerification, word.Hex())
	}
	out.CycleCount = word.Uint64()

	word.SetBytes32(dat[64:96])
	if !word.IsUint64() {
		return nil, fmt.Errorf("%w: step count %s out of range", ErrVerification, word.Hex())
	}
	out.Steps = word.Uint64()
	return &out, nil
}
