package vm

import (
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Segment is a contiguous chunk of the initial memory image.
type Segment struct {
	VirtualAddress uint32        `json:"vaddr"`
	Data           hexutil.Bytes `json:"data"`
}

// Symbol names a range of the program's address space.
type Symbol struct {
	Name  string `json:"name"`
	Start uint32 `json:"start"`
	Size  uint32 `json:"size"`
}

// Program is a loadable memory image plus its entry point.
// Symbols are optional, sorted by Start, and only used for diagnostics.
type Program struct {
	Entry    uint32    `json:"entry"`
	Segments []Segment `json:"segments"`
	Symbols  []Symbol  `json:"symbols,omitempty"`
}

// Size returns the total number of bytes in all segments.
func (p *Program) Size() uint64 {
	var n uint64
	for _, s := range p.Segments {
		n += uint64(len(s.Data))
	}
	return n
}

// LookupSymbol finds the name of the symbol that contains addr.
func (p *Program) LookupSymbol(addr uint32) string {
	// find first symbol with higher start, or n if no such symbol exists
	i := sort.Search(len(p.Symbols), func(i int) bool {
		return p.Symbols[i].Start > addr
	})
	if i == 0 {
		return "!start"
	}
	out := &p.Symbols[i-1]
	if uint64(out.Start)+uint64(out.Size) < uint64(addr) { // addr may be pointing to a gap between symbols
		return "!gap"
	}
	return out.Name
}
