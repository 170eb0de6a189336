package linker

import (
	"debug/elf"
	"sync/atomic"

	"github.com/weldlink/weld/pkg/utils"
)

// Demand flags the dispatcher ORs into a symbol's Flags as relocation
// scanning discovers it needs GOT/PLT/copy-relocation/canonical-PLT
// support. Downstream passes (GOT/PLT/dynsym emission, out of scope
// here) consume these; this engine only ever sets them.
const (
	NeedsGotTp   uint32 = 1 << 0
	NeedsCopyrel uint32 = 1 << 1
	NeedsPlt     uint32 = 1 << 2
	NeedsCplt    uint32 = 1 << 3
)

// Symbol is the linker's view of one ELF symbol: either a definition
// (File != nil) or still-undefined (File == nil). Global symbols are
// interned once per name in Context.symbolMap so every translation
// unit's reference shares one Symbol; local symbols live in
// ObjectFile.LocalSymbols. Flags is mutated from any goroutine scanning
// a section that references this symbol, hence the atomic OR.
type Symbol struct {
	File   *ObjectFile
	Name   string
	Value  uint64
	SymIdx int

	InputSection *InputSection

	Flags      atomic.Uint32
	IsImported bool

	dynsymIdx int32
}

func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name, SymIdx: -1, dynsymIdx: -1}
}

// AddFlags atomically ORs extra into Flags. Demand flags are
// OR-monotone: once set by any scan, they are never cleared by another.
func (s *Symbol) AddFlags(extra uint32) {
	for {
		old := s.Flags.Load()
		if old&extra == extra {
			return
		}
		if s.Flags.CompareAndSwap(old, old|extra) {
			return
		}
	}
}

func (s *Symbol) SetInputSection(isec *InputSection) {
	s.InputSection = isec
}

func (s *Symbol) ElfSym() *Sym {
	utils.Assert(s.SymIdx < len(s.File.ElfSyms))
	return &s.File.ElfSyms[s.SymIdx]
}

// IsAbsolute reports whether this symbol has no section (SHN_ABS),
// kind index 0 in the classifier's symbol-kind axis.
func (s *Symbol) IsAbsolute() bool {
	if s.File == nil || s.SymIdx < 0 {
		return false
	}
	return s.ElfSym().IsAbs()
}

// GetType returns the ELF symbol type (STT_FUNC vs everything else is
// what distinguishes "imported code" from "imported data" in the
// classifier).
func (s *Symbol) GetType() elf.SymType {
	if s.File == nil || s.SymIdx < 0 {
		return elf.STT_NOTYPE
	}
	return s.ElfSym().Type()
}

// Visibility returns the symbol's ELF visibility (STV_*).
func (s *Symbol) Visibility() uint8 {
	if s.File == nil || s.SymIdx < 0 {
		return 0
	}
	return s.ElfSym().Visibility()
}

// kind returns the classifier's symbol-kind index: absolute -> 0,
// locally defined non-imported -> 1, imported non-code -> 2, imported
// code (function) -> 3.
func (s *Symbol) kind() int {
	if s.IsAbsolute() {
		return 0
	}
	if !s.IsImported {
		return 1
	}
	if s.GetType() != elf.STT_FUNC {
		return 2
	}
	return 3
}

// GetDynsymIdx returns this symbol's index in the output .dynsym,
// assigning one the first time it's requested. Real dynsym-table
// construction is out of scope for this engine (it only records that an
// entry will be needed, via the COPYREL/PLT/CPLT demand flags and the
// per-file NumDynrel count);
// GetDynsymIdx here hands out stable sequential indices so that
// apply_abs_dyn_rel can still build a well-formed, if synthetic, dynamic
// relocation record during tests and demonstrations.
func (s *Symbol) GetDynsymIdx(ctx *Context) int32 {
	if s.dynsymIdx >= 0 {
		return s.dynsymIdx
	}
	ctx.symMu.Lock()
	defer ctx.symMu.Unlock()
	if s.dynsymIdx < 0 {
		s.dynsymIdx = ctx.nextDynsymIdx
		ctx.nextDynsymIdx++
	}
	return s.dynsymIdx
}

// GetAddr returns the symbol's resolved runtime address, relative to
// its defining InputSection's offset if it has one.
func (s *Symbol) GetAddr() uint64 {
	if s.InputSection != nil {
		return s.InputSection.GetAddr() + s.Value
	}
	return s.Value
}
