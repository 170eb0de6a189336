package linker

import (
	"debug/elf"

	"github.com/weldlink/weld/pkg/utils"
)

// RISCV64 reuses the instruction-encoding helpers unicornx-rvld wrote
// for its relocation applier (writeItype/writeStype/writeBtype/
// writeUtype/writeJtype), adapted to run behind the Arch/riscvCopier
// hook instead of being hard-wired into InputSection.WriteTo. RISC-V's
// branch/call/hi20/lo12 relocations rewrite instruction bit fields
// rather than storing a plain word, which is why write_to dispatches to
// a dedicated copier for this flavor (spec.md §4.5, step 2) instead of
// the classifier/dispatcher's generic S+A store.
type RISCV64 struct{}

func (RISCV64) IsRELA() bool      { return true }
func (RISCV64) IsRISCV() bool     { return true }
func (RISCV64) WordSize() int     { return 8 }
func (RISCV64) RRelative() uint32 { return 3 } // R_RISCV_RELATIVE
func (RISCV64) RAbs() uint32      { return 2 } // R_RISCV_64
func (RISCV64) Name() string      { return "riscv64" }

func (RISCV64) RelocShape(relType uint32) (RelocShape, bool) {
	switch elf.R_RISCV(relType) {
	case elf.R_RISCV_64:
		return ShapeAbsWord, true
	case elf.R_RISCV_32:
		return ShapeAbsNarrow, true
	case elf.R_RISCV_CALL, elf.R_RISCV_CALL_PLT, elf.R_RISCV_BRANCH,
		elf.R_RISCV_JAL, elf.R_RISCV_PCREL_HI20:
		return ShapePcrel, true
	default:
		return 0, false
	}
}

func (RISCV64) CopyContentsRISCV(ctx *Context, isec *InputSection, buf []byte) {
	copy(buf, isec.Contents)

	for _, rel := range isec.GetRels(ctx) {
		if rel.Type == uint32(elf.R_RISCV_NONE) || rel.Type == uint32(elf.R_RISCV_RELAX) {
			continue
		}

		sym := isec.File.Symbols[rel.Sym]
		if sym.File == nil && !sym.IsAbsolute() {
			continue
		}

		loc := buf[rel.Offset:]
		S := sym.GetAddr()
		A := uint64(rel.Addend)
		P := isec.GetAddr() + rel.Offset

		switch elf.R_RISCV(rel.Type) {
		case elf.R_RISCV_32:
			utils.Write[uint32](loc, uint32(S+A))
		case elf.R_RISCV_64:
			utils.Write[uint64](loc, S+A)
		case elf.R_RISCV_BRANCH:
			writeBtype(loc, uint32(S+A-P))
		case elf.R_RISCV_JAL:
			writeJtype(loc, uint32(S+A-P))
		case elf.R_RISCV_CALL, elf.R_RISCV_CALL_PLT:
			val := uint32(S + A - P)
			writeUtype(loc, val)
			writeItype(loc[4:], val)
		case elf.R_RISCV_PCREL_HI20:
			writeUtype(loc, uint32(S+A-P))
		case elf.R_RISCV_HI20:
			writeUtype(loc, uint32(S+A))
		case elf.R_RISCV_LO12_I, elf.R_RISCV_LO12_S:
			val := S + A
			if rel.Type == uint32(elf.R_RISCV_LO12_I) {
				writeItype(loc, uint32(val))
			} else {
				writeStype(loc, uint32(val))
			}
		}
	}
}

func itype(val uint32) uint32 { return val << 20 }

func stype(val uint32) uint32 {
	return utils.Bits(val, 11, 5)<<25 | utils.Bits(val, 4, 0)<<7
}

func btype(val uint32) uint32 {
	return utils.Bit(val, 12)<<31 | utils.Bits(val, 10, 5)<<25 |
		utils.Bits(val, 4, 1)<<8 | utils.Bit(val, 11)<<7
}

func utype(val uint32) uint32 {
	return (val + 0x800) & 0xffff_f000
}

func jtype(val uint32) uint32 {
	return utils.Bit(val, 20)<<31 | utils.Bits(val, 10, 1)<<21 |
		utils.Bit(val, 11)<<20 | utils.Bits(val, 19, 12)<<12
}

func writeItype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_11111_111_11111_1111111)
	utils.Write[uint32](loc, (utils.Read32(loc)&mask)|itype(val))
}

func writeStype(loc []byte, val uint32) {
	mask := uint32(0b000000_11111_11111_111_00000_1111111)
	utils.Write[uint32](loc, (utils.Read32(loc)&mask)|stype(val))
}

func writeBtype(loc []byte, val uint32) {
	mask := uint32(0b000000_11111_11111_111_00000_1111111)
	utils.Write[uint32](loc, (utils.Read32(loc)&mask)|btype(val))
}

func writeUtype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_00000_000_11111_1111111)
	utils.Write[uint32](loc, (utils.Read32(loc)&mask)|utype(val))
}

func writeJtype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_00000_000_11111_1111111)
	utils.Write[uint32](loc, (utils.Read32(loc)&mask)|jtype(val))
}
