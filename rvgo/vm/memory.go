package vm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Memory is a flat, byte addressable, little-endian address space starting at 0.
type Memory struct {
	data []byte
}

func NewMemory(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// check verifies that [addr, addr+width) lies in memory, for any width.
func (m *Memory) check(addr uint32, width uint64) error {
	size := uint64(len(m.data))
	if width > size || uint64(addr) > size-width {
		return &MemoryViolationError{Addr: addr, Width: width, Size: size}
	}
	return nil
}

func (m *Memory) LoadByte(addr uint32) (uint8, error) {
	if err := m.check(addr, 1); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

func (m *Memory) LoadHalfword(addr uint32) (uint16, error) {
	if err := m.check(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[addr:]), nil
}

func (m *Memory) LoadWord(addr uint32) (uint32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[addr:]), nil
}

func (m *Memory) StoreByte(addr uint32, v uint8) error {
	if err := m.check(addr, 1); err != nil {
		return err
	}
	m.data[addr] = v
	return nil
}

func (m *Memory) StoreHalfword(addr uint32, v uint16) error {
	if err := m.check(addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[addr:], v)
	return nil
}

func (m *Memory) StoreWord(addr uint32, v uint32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[addr:], v)
	return nil
}

// LoadBytes returns a copy of n bytes starting at addr.
func (m *Memory) LoadBytes(addr uint32, n uint64) ([]byte, error) {
	if err := m.check(addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.data[addr:])
	return out, nil
}

func (m *Memory) StoreBytes(addr uint32, data []byte) error {
	if err := m.check(addr, uint64(len(data))); err != nil {
		return err
	}
	copy(m.data[addr:], data)
	return nil
}

// SetMemoryRange writes everything r produces starting at addr.
// The reader is drained first, so a range that does not fit leaves memory unchanged.
func (m *Memory) SetMemoryRange(addr uint32, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read memory range data: %w", err)
	}
	return m.StoreBytes(addr, data)
}

type memReader struct {
	m     *Memory
	addr  uint64
	count uint64
}

func (r *memReader) Read(dest []byte) (n int, err error) {
	if r.count == 0 {
		return 0, io.EOF
	}
	end := r.addr + r.count
	n = copy(dest, r.m.data[r.addr:end])
	r.addr += uint64(n)
	r.count -= uint64(n)
	return n, nil
}

// ReadMemoryRange returns a reader over count bytes starting at addr.
// The reader sees later writes to the range.
func (m *Memory) ReadMemoryRange(addr uint32, count uint64) (io.Reader, error) {
	if err := m.check(addr, count); err != nil {
		return nil, err
	}
	return &memReader{m: m, addr: uint64(addr), count: count}, nil
}

// Clear zeroes all of memory.
func (m *Memory) Clear() {
	clear(m.data)
}

// Usage renders the memory capacity in human readable form.
func (m *Memory) Usage() string {
	total := m.Size()
	const unit = 1024
	if total < unit {
		return fmt.Sprintf("%d B", total)
	}
	div, exp := uint64(unit), 0
	for n := total / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	// KiB, MiB, GiB, TiB, ...
	return fmt.Sprintf("%.1f %ciB", float64(total)/float64(div), "KMGTPE"[exp])
}
