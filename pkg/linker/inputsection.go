package linker

import (
	"debug/elf"
	"math"

	"github.com/weldlink/weld/pkg/utils"
)

// Reloc is the engine's architecture-neutral view of one relocation
// entry, normalized from either Rela (addend travels with the entry) or
// Rel (addend lives in the section's own bytes) the first time GetRels
// is called for a section.
type Reloc struct {
	Offset uint64
	Type   uint32
	Sym    uint32
	Addend int64
}

// InputSection is one contributory section of one input object: a
// window into its file's bytes plus the decompression and
// output-placement state the classifier, dispatcher and writer need.
type InputSection struct {
	File  *ObjectFile
	Arch  Arch
	Shndx uint32

	Contents []byte

	// ShSize and P2Align are the section's logical (uncompressed) size
	// and alignment, read out of the legacy zdebug header or the Chdr,
	// not the on-disk compressed bytes.
	ShSize  uint32
	P2Align uint8

	Compressed   bool
	legacyZdebug bool

	// Offset is this section's position within its OutputSection, filled
	// in by layout. math.MaxUint32 marks "not yet placed".
	Offset        uint32
	OutputSection *OutputSection

	RelsecIdx uint32
	RelIsRela bool
	rels      []Reloc
}

// NewInputSection materializes section shndx of file: it classifies the
// section's compression format (legacy .zdebug prefix vs. modern
// SHF_COMPRESSED), records its logical size/alignment, and — for
// REL-class architectures, whose addends live in the section bytes
// rather than the relocation entry — decompresses it immediately so
// ScanRelocations can read those addends later.
func NewInputSection(ctx *Context, name string, file *ObjectFile, shndx uint32) *InputSection {
	isec := &InputSection{
		File:      file,
		Arch:      file.arch(),
		Shndx:     shndx,
		Offset:    math.MaxUint32,
		RelsecIdx: math.MaxUint32,
	}

	shdr := isec.Shdr()
	isec.Contents = file.File.Contents[shdr.Offset : shdr.Offset+shdr.Size]

	switch {
	case hasZdebugPrefix(name):
		isec.legacyZdebug = true
		isec.Compressed = true
		if shdr.Size == 0 {
			isec.ShSize = 0
		} else if len(isec.Contents) >= 12 {
			isec.ShSize = uint32(beU64(isec.Contents[4:12]))
		}
		isec.P2Align = ToP2Align(shdr.AddrAlign)
	case shdr.Flags&uint64(elf.SHF_COMPRESSED) != 0:
		isec.Compressed = true
		if len(isec.Contents) >= ChdrSize {
			var chdr Chdr
			utils.Read(isec.Contents, &chdr)
			isec.ShSize = uint32(chdr.Size)
			isec.P2Align = ToP2Align(chdr.AddrAlign)
		}
	default:
		isec.ShSize = uint32(shdr.Size)
		isec.P2Align = ToP2Align(shdr.AddrAlign)
	}

	if !isec.Arch.IsRELA() {
		isec.decompress(ctx)
	}

	isec.OutputSection = GetOutputSection(ctx, name, shdr.Type, shdr.Flags)
	return isec
}

func hasZdebugPrefix(name string) bool {
	_, ok := utils.RemovePrefix(name, ".zdebug")
	return ok
}

// beU64 decodes a big-endian uint64, the byte order the legacy zdebug
// header stores its size field in.
func beU64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

func (i *InputSection) Shdr() *Shdr {
	utils.Assert(i.Shndx < uint32(len(i.File.ElfSections)))
	return &i.File.ElfSections[i.Shndx]
}

func (i *InputSection) Name() string {
	return ElfGetName(i.File.ShStrtab, i.Shdr().Name)
}

// GetAddr returns this section's address relative to its OutputSection.
// Assigning OutputSections real runtime addresses is a full link
// driver's job; callers that need PC-relative math (RISC-V's copier)
// read this as an offset within whatever base they're tracking.
func (i *InputSection) GetAddr() uint64 {
	return uint64(i.Offset)
}

// GetRels lazily loads and normalizes this section's relocation list,
// caching the result so the classifier and the writer share one
// decoding.
func (i *InputSection) GetRels(ctx *Context) []Reloc {
	if i.RelsecIdx == math.MaxUint32 {
		return nil
	}
	if i.rels != nil {
		return i.rels
	}

	bs := i.File.GetBytesFromShdr(&i.File.ElfSections[i.RelsecIdx])
	if i.RelIsRela {
		raw := utils.ReadSlice[Rela](bs, RelaSize)
		i.rels = make([]Reloc, len(raw))
		for j, r := range raw {
			i.rels[j] = Reloc{Offset: r.Offset, Type: r.Type(), Sym: r.Sym(), Addend: r.Addend}
		}
	} else {
		raw := utils.ReadSlice[Rel](bs, RelSize)
		i.rels = make([]Reloc, len(raw))
		for j, r := range raw {
			i.rels[j] = Reloc{
				Offset: r.Offset,
				Type:   r.Type(),
				Sym:    r.Sym(),
				Addend: addendFromBytes(i.Contents, r.Offset, i.Arch.WordSize()),
			}
		}
	}
	return i.rels
}

// symbolAt resolves relocation entry idx's referenced Symbol.
func (i *InputSection) symbolAt(idx uint32) *Symbol {
	utils.Assert(int(idx) < len(i.File.Symbols))
	return i.File.Symbols[idx]
}
