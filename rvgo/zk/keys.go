package zk

import (
	"crypto/rand"
	"fmt"
	"path/filepath"

	cannon "github.com/ethereum-optimism/optimism/cannon/cmd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	ProvingKeyFile   = "proving_key.json"
	VerifyingKeyFile = "verifying_key.json"
)

var setupDomain = []byte("zkvm/setup/v1")

type VerifyingKey struct {
	Key common.Hash `json:"key"`
}

type ProvingKey struct {
	Secret       common.Hash  `json:"secret"`
	VerifyingKey VerifyingKey `json:"verifyingKey"`
}

// Setup derives a key pair from seed. An empty seed draws a random one.
func Setup(seed []byte) (*ProvingKey, *VerifyingKey, error) {
	if len(seed) == 0 {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return nil, nil, fmt.Errorf("failed to generate setup seed: %w", err)
		}
	}
	secret := crypto.Keccak256Hash(setupDomain, seed)
	vk := VerifyingKey{Key: crypto.Keccak256Hash(secret[:])}
	return &ProvingKey{Secret: secret, VerifyingKey: vk}, &vk, nil
}

// WriteKeys stores both keys in dir, under ProvingKeyFile and VerifyingKeyFile.
func WriteKeys(dir string, pk *ProvingKey, vk *VerifyingKey) error {
	if err := cannon.WriteJSON(filepath.Join(dir, ProvingKeyFile), pk); err != nil {
		return fmt.Errorf("failed to write proving key: %w", err)
	}
	if err := cannon.WriteJSON(filepath.Join(dir, VerifyingKeyFile), vk); err != nil {
		return fmt.Errorf("failed to write verifying key: %w", err)
	}
	return nil
}

func LoadProvingKey(path string) (*ProvingKey, error) {
	pk, err := cannon.LoadJSON[ProvingKey](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load proving key: %w", err)
	}
	if crypto.Keccak256Hash(pk.Secret[:]) != pk.VerifyingKey.Key {
		return nil, fmt.Errorf("proving key %q does not match its verifying key", path)
	}
	return pk, nil
}

func LoadVerifyingKey(path string) (*VerifyingKey, error) {
	vk, err := cannon.LoadJSON[VerifyingKey](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load verifying key: %w", err)
	}
	return vk, nil
}
