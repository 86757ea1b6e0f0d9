package loader

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	cannon "github.com/ethereum-optimism/optimism/cannon/cmd"

	"github.com/zkrisc/zkvm/rvgo/vm"
)

// LoadELF extracts the entry point and loadable segments of a 32 bit RISC-V executable.
func LoadELF(f *elf.File) (*vm.Program, error) {
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("%w: ELF is not 32 bit, but got %s", vm.ErrLoader, f.Class)
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w: ELF is not RISC-V, but got %q", vm.ErrLoader, f.Machine.String())
	}
	if f.Entry > math.MaxUint32 {
		return nil, fmt.Errorf("%w: entry point 0x%x does not fit in 32 bits", vm.ErrLoader, f.Entry)
	}
	out := &vm.Program{Entry: uint32(f.Entry)}

	for i, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			// e.g. the `.riscv.attributes` segment, which has 0 mem size and is never loaded.
			// See: https://github.com/riscv-non-isa/riscv-elf-psabi-doc/blob/master/riscv-elf.adoc#attributes
			continue
		}
		if prog.Filesz > prog.Memsz {
			return nil, fmt.Errorf("%w: invalid PT_LOAD program segment %d, file size (%d) > mem size (%d)", vm.ErrLoader, i, prog.Filesz, prog.Memsz)
		}
		if prog.Vaddr > math.MaxUint32 || prog.Memsz > math.MaxUint32+1-prog.Vaddr {
			return nil, fmt.Errorf("%w: program segment %d at 0x%x with size %d does not fit in 32 bits", vm.ErrLoader, i, prog.Vaddr, prog.Memsz)
		}
		if prog.Memsz == 0 {
			continue
		}

		r := io.Reader(io.NewSectionReader(prog, 0, int64(prog.Filesz)))
		if prog.Filesz < prog.Memsz {
			r = io.MultiReader(r, bytes.NewReader(make([]byte, prog.Memsz-prog.Filesz)))
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read program segment %d: %w", vm.ErrLoader, i, err)
		}
		out.Segments = append(out.Segments, vm.Segment{
			VirtualAddress: uint32(prog.Vaddr),
			Data:           data,
		})
	}
	if len(out.Segments) == 0 {
		return nil, fmt.Errorf("%w: ELF has no loadable segments", vm.ErrLoader)
	}
	symbols, err := Symbols(f)
	if err != nil {
		return nil, err
	}
	out.Symbols = symbols
	return out, nil
}

// Symbols returns the function and object symbols of f sorted by address.
// An ELF without a symbol table has no symbols.
func Symbols(f *elf.File) ([]vm.Symbol, error) {
	symbols, err := f.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read symbols data: %w", vm.ErrLoader, err)
	}
	out := make([]vm.Symbol, 0, len(symbols))
	for _, s := range symbols {
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC, elf.STT_OBJECT:
		default:
			continue
		}
		if s.Value > math.MaxUint32 || s.Size > math.MaxUint32 {
			continue
		}
		out = append(out, vm.Symbol{Name: s.Name, Start: uint32(s.Value), Size: uint32(s.Size)})
	}
	// not every ELF has sorted symbols
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out, nil
}

// Open reads a program from path: a JSON program image if the name ends in .json, an ELF file otherwise.
func Open(path string) (*vm.Program, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		p, err := cannon.LoadJSON[vm.Program](path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", vm.ErrLoader, err)
		}
		return p, nil
	}
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open ELF file %q: %w", vm.ErrLoader, path, err)
	}
	defer f.Close()
	return LoadELF(f)
}
