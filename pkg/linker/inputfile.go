package linker

import (
	"debug/elf"
	"fmt"

	"github.com/weldlink/weld/pkg/utils"
)

// InputFile holds the parts of an ELF object every InputSection needs
// to resolve itself against: the section header table, the section-name
// string table, and (once ObjectFile.Parse runs) the symbol table and
// its string table.
type InputFile struct {
	File         *File
	Machine      uint16
	ElfSections  []Shdr
	ShStrtab     []byte
	ElfSyms      []Sym
	FirstGlobal  int
	SymbolStrtab []byte
	Symbols      []*Symbol
	LocalSymbols []Symbol
}

func NewInputFile(file *File) InputFile {
	f := InputFile{File: file}

	if len(file.Contents) < EhdrSize {
		utils.Fatal("file too small")
	}
	if !CheckMagic(file.Contents) {
		utils.Fatal("not an ELF file")
	}

	var ehdr Ehdr
	utils.Read(file.Contents, &ehdr)
	f.Machine = ehdr.Machine

	shdrBytes := file.Contents[ehdr.ShOff:]
	var first Shdr
	utils.Read(shdrBytes, &first)

	numSections := int64(ehdr.ShNum)
	if numSections == 0 {
		numSections = int64(first.Size)
	}

	f.ElfSections = make([]Shdr, 0, numSections)
	f.ElfSections = append(f.ElfSections, first)
	for i := int64(1); i < numSections; i++ {
		var shdr Shdr
		utils.Read(shdrBytes[i*int64(ShdrSize):], &shdr)
		f.ElfSections = append(f.ElfSections, shdr)
	}

	shstrndx := int64(ehdr.ShStrndx)
	if ehdr.ShStrndx == uint16(elf.SHN_XINDEX) {
		shstrndx = int64(first.Link)
	}
	f.ShStrtab = f.GetBytesFromIdx(shstrndx)
	return f
}

func (f *InputFile) GetBytesFromShdr(s *Shdr) []byte {
	end := s.Offset + s.Size
	if uint64(len(f.File.Contents)) < end {
		utils.Fatal(fmt.Sprintf("section header is out of range: %d", s.Offset))
	}
	return f.File.Contents[s.Offset:end]
}

func (f *InputFile) GetBytesFromIdx(idx int64) []byte {
	return f.GetBytesFromShdr(&f.ElfSections[idx])
}

func (f *InputFile) FillUpElfSyms(s *Shdr) {
	bs := f.GetBytesFromShdr(s)
	f.ElfSyms = utils.ReadSlice[Sym](bs, SymSize)
}

func (f *InputFile) FindSection(ty uint32) *Shdr {
	for i := range f.ElfSections {
		if f.ElfSections[i].Type == ty {
			return &f.ElfSections[i]
		}
	}
	return nil
}

// ElfGetName reads a NUL-terminated name out of a string-table byte
// slice at the given offset.
func ElfGetName(strtab []byte, offset uint32) string {
	end := offset
	for end < uint32(len(strtab)) && strtab[end] != 0 {
		end++
	}
	return string(strtab[offset:end])
}

const elfMagic = "\x7fELF"

func CheckMagic(contents []byte) bool {
	return len(contents) >= 4 && string(contents[:4]) == elfMagic
}
