package vm

import (
	"errors"
	"fmt"
)

const (
	DefaultMemorySize = 4 << 20
	DefaultMaxCycles  = 1_000_000

	// MaxMemorySize is the full 32 bit address space.
	MaxMemorySize = 1 << 32
)

// Config holds the construction parameters of a VirtualMachine.
type Config struct {
	MemorySize   uint64 `json:"memorySize"`
	MaxCycles    uint64 `json:"maxCycles"`
	EnableProofs bool   `json:"enableProofs"`
}

func DefaultConfig() Config {
	return Config{
		MemorySize:   DefaultMemorySize,
		MaxCycles:    DefaultMaxCycles,
		EnableProofs: false,
	}
}

func (c *Config) Check() error {
	if c.MemorySize == 0 {
		return errors.New("memory size must be non-zero")
	}
	if c.MemorySize > MaxMemorySize {
		return fmt.Errorf("memory size %d exceeds the 32 bit address space", c.MemorySize)
	}
	if c.MaxCycles == 0 {
		return errors.New("max cycles must be non-zero")
	}
	return nil
}
