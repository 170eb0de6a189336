package linker

import "bytes"

// CieRecord is one Common Information Entry inside a .eh_frame section,
// used to deduplicate identical CIEs emitted by multiple translation
// units. Contents is a view into the owning section's bytes, which
// CieRecord never copies or owns; Rels holds copies of the section's
// relocations that fall inside the CIE.
type CieRecord struct {
	InputSection *InputSection
	Offset       uint32
	Contents     []byte
	Rels         []Reloc
}

// NewCieRecord slices out the CIE at offset within isec, along with the
// subset of isec's relocations that fall inside [offset, offset+size).
func NewCieRecord(ctx *Context, isec *InputSection, offset, size uint32) *CieRecord {
	c := &CieRecord{
		InputSection: isec,
		Offset:       offset,
		Contents:     isec.Contents[offset : offset+size],
	}
	for _, rel := range isec.GetRels(ctx) {
		if rel.Offset >= uint64(offset) && rel.Offset < uint64(offset+size) {
			c.Rels = append(c.Rels, rel)
		}
	}
	return c
}

// Equals reports structural equality per spec.md §4.2: byte-equal
// contents, same-length relocation lists, and for each relocation,
// equal offset relative to the CIE's own start, equal type, identical
// resolved symbol (pointer equality, not name), and equal addend.
func (c *CieRecord) Equals(other *CieRecord) bool {
	if !bytes.Equal(c.Contents, other.Contents) {
		return false
	}
	if len(c.Rels) != len(other.Rels) {
		return false
	}

	for i, a := range c.Rels {
		b := other.Rels[i]
		if a.Offset-uint64(c.Offset) != b.Offset-uint64(other.Offset) {
			return false
		}
		if a.Type != b.Type {
			return false
		}
		if a.Addend != b.Addend {
			return false
		}
		symA := c.InputSection.symbolAt(a.Sym)
		symB := other.InputSection.symbolAt(b.Sym)
		if symA != symB {
			return false
		}
	}
	return true
}
