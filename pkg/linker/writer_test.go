package linker

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAllocatedWordNoneStoresSPlusA(t *testing.T) {
	ctx := NewContext()

	defObj := &ObjectFile{}
	def := NewSymbol("callee")
	def.File = defObj
	def.InputSection = &InputSection{Offset: 0x1000}
	def.Value = 0x10

	obj := &ObjectFile{}
	obj.ElfSections = []Shdr{{}}
	isec := &InputSection{
		File:      obj,
		Arch:      X86_64{},
		Shndx:     0,
		Contents:  make([]byte, 16),
		RelsecIdx: 0,
		rels:      []Reloc{{Offset: 0, Type: 1, Sym: 0, Addend: 4}},
	}
	obj.Symbols = []*Symbol{def}

	buf := make([]byte, 16)
	relocs := isec.applyAllocated(ctx, buf)
	assert.Empty(t, relocs)
	assert.Equal(t, uint64(0x1010+4), binary.LittleEndian.Uint64(buf[:8]))
}

// I386's absolute-word relocation (R_386_32) is 4 bytes wide, unlike
// X86_64's 8-byte R_X86_64_64. applyAllocated must honor WordSize()
// rather than always storing a uint64, or it corrupts whatever follows
// the relocated word in buf.
func TestApplyAllocatedWordRespectsI386WordSize(t *testing.T) {
	ctx := NewContext()

	defObj := &ObjectFile{}
	def := NewSymbol("callee")
	def.File = defObj
	def.InputSection = &InputSection{Offset: 0x1000}
	def.Value = 0x10

	obj := &ObjectFile{}
	obj.ElfSections = []Shdr{{}}
	isec := &InputSection{
		File:      obj,
		Arch:      I386{},
		Shndx:     0,
		Contents:  make([]byte, 8),
		RelsecIdx: 0,
		rels:      []Reloc{{Offset: 0, Type: 1, Sym: 0, Addend: 4}}, // R_386_32
	}
	obj.Symbols = []*Symbol{def}

	buf := []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}
	relocs := isec.applyAllocated(ctx, buf)
	assert.Empty(t, relocs)
	assert.Equal(t, uint32(0x1010+4), binary.LittleEndian.Uint32(buf[:4]))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf[4:8],
		"a 4-byte store must not touch the bytes past the relocated word")
}

func TestApplyAllocatedDynrelEmitsAddendOnly(t *testing.T) {
	ctx := NewContext()
	ctx.Args.Pie = true

	imported := NewSymbol("data")
	imported.File = &ObjectFile{}
	imported.IsImported = true
	imported.SymIdx = 0
	imported.File.ElfSyms = []Sym{{Info: 0x11}} // STT_OBJECT

	obj := &ObjectFile{}
	obj.ElfSections = []Shdr{{}}
	isec := &InputSection{
		File:      obj,
		Arch:      X86_64{},
		Shndx:     0,
		Contents:  make([]byte, 16),
		RelsecIdx: 0,
		rels:      []Reloc{{Offset: 0, Type: 1, Sym: 0, Addend: 7}},
	}
	obj.Symbols = []*Symbol{imported}

	buf := make([]byte, 16)
	relocs := isec.applyAllocated(ctx, buf)
	assert.Len(t, relocs, 1)
	assert.Equal(t, int64(7), relocs[0].Addend)
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(buf[:8]))
}
