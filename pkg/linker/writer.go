package linker

import (
	"debug/elf"

	"github.com/weldlink/weld/pkg/utils"
)

// DynReloc is one dynamic relocation record emitted by apply_abs_dyn_rel
// during the write pass, for whatever downstream pass would serialize a
// .rela.dyn (out of scope for this engine — it only records what would
// need to be emitted).
type DynReloc struct {
	Place  uint64
	Type   uint32
	Dynsym int32
	Addend int64
}

// WriteTo is the writer entry point (spec.md §4.5): materialize this
// section's bytes into buf, then apply its relocations: through the
// allocated applier if the section contributes to the loaded image,
// through the non-allocated applier otherwise.
func (i *InputSection) WriteTo(ctx *Context, buf []byte) []DynReloc {
	if i.isNobits() {
		return nil
	}

	if i.Compressed {
		i.decompress(ctx)
	}

	if copier, ok := i.Arch.(riscvCopier); ok {
		copier.CopyContentsRISCV(ctx, i, buf)
		// RISC-V's copier already applies relocations as it rewrites
		// instruction bit fields; the generic word-store applier below
		// would double-apply them.
		return nil
	}

	copy(buf, i.Contents)

	if i.Shdr().Flags&uint64(elf.SHF_ALLOC) != 0 {
		return i.applyAllocated(ctx, buf)
	}
	i.applyNonAllocated(ctx, buf)
	return nil
}

// applyAllocated walks every relocation in an allocated (loaded)
// section. Absolute-word relocations go through apply_abs_dyn_rel's
// S+A/A table and may contribute a DynReloc; narrow-absolute and
// PC-relative relocations outside of ERROR/COPYREL/PLT/CPLT (those were
// already diagnosed, or deferred to the GOT/PLT emission this engine
// doesn't own) resolve fully at link time.
func (i *InputSection) applyAllocated(ctx *Context, buf []byte) []DynReloc {
	isToc := i.Name() == ".toc"
	var out []DynReloc

	for _, rel := range i.GetRels(ctx) {
		sym := i.symbolAt(rel.Sym)
		if sym.File == nil && !sym.IsAbsolute() {
			continue
		}

		shape, ok := i.Arch.RelocShape(rel.Type)
		if !ok {
			continue
		}

		action := GetRelAction(ctx, sym, shape, isToc)
		loc := buf[rel.Offset:]
		S := sym.GetAddr()
		A := uint64(rel.Addend)
		P := i.GetAddr() + rel.Offset

		switch shape {
		case ShapeAbsWord:
			switch action {
			case ActionBaserel:
				writeWord(loc, i.Arch.WordSize(), S+A)
				if !i.isRelrReloc(ctx) {
					out = append(out, DynReloc{Place: P, Type: i.Arch.RRelative(), Dynsym: 0, Addend: int64(S + A)})
				}
			case ActionDynrel:
				writeWord(loc, i.Arch.WordSize(), A)
				out = append(out, DynReloc{Place: P, Type: i.Arch.RAbs(), Dynsym: sym.GetDynsymIdx(ctx), Addend: rel.Addend})
			default:
				writeWord(loc, i.Arch.WordSize(), S+A)
			}
		case ShapeAbsNarrow:
			utils.Write[uint32](loc, uint32(S+A))
		case ShapePcrel:
			utils.Write[uint32](loc, uint32(S+A-P))
		}
	}
	return out
}

// applyNonAllocated resolves relocations in a non-loaded (e.g. debug)
// section purely at link time: every reference collapses to S+A since
// nothing here will be read by the dynamic loader.
func (i *InputSection) applyNonAllocated(ctx *Context, buf []byte) {
	for _, rel := range i.GetRels(ctx) {
		sym := i.symbolAt(rel.Sym)
		if sym.File == nil && !sym.IsAbsolute() {
			continue
		}
		loc := buf[rel.Offset:]
		val := sym.GetAddr() + uint64(rel.Addend)
		writeWord(loc, i.Arch.WordSize(), val)
	}
}

// writeWord stores val at loc using the architecture's absolute-word
// width. A narrower store than the caller's intended field corrupts
// whatever follows it in buf, so this must always match WordSize()
// rather than assume 64 bits.
func writeWord(loc []byte, wordSize int, val uint64) {
	switch wordSize {
	case 4:
		utils.Write[uint32](loc, uint32(val))
	default:
		utils.Write[uint64](loc, val)
	}
}
