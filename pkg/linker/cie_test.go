package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newCieTestSection(contents []byte, rels []Reloc, syms []*Symbol) *InputSection {
	obj := &ObjectFile{}
	obj.Symbols = syms
	return &InputSection{File: obj, Contents: contents, rels: rels, RelsecIdx: 0}
}

func TestCieEqualityIsEquivalence(t *testing.T) {
	sym := NewSymbol("x")
	contents := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	rels := []Reloc{{Offset: 4, Type: 1, Sym: 0, Addend: 0}}
	syms := []*Symbol{sym}

	a := NewCieRecord(NewContext(), newCieTestSection(contents, rels, syms), 0, 8)
	b := NewCieRecord(NewContext(), newCieTestSection(append([]byte{}, contents...), rels, syms), 0, 8)
	c := NewCieRecord(NewContext(), newCieTestSection(contents, rels, syms), 0, 8)

	// Reflexive.
	assert.True(t, a.Equals(a))
	// Symmetric.
	assert.True(t, a.Equals(b))
	assert.True(t, b.Equals(a))
	// Transitive.
	assert.True(t, b.Equals(c))
	assert.True(t, a.Equals(c))
}

func TestCieEqualityDiffersOnSymbolIdentity(t *testing.T) {
	symA := NewSymbol("x")
	symB := NewSymbol("x") // same name, distinct identity
	contents := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	rels := []Reloc{{Offset: 4, Type: 1, Sym: 0, Addend: 0}}

	a := NewCieRecord(NewContext(), newCieTestSection(contents, rels, []*Symbol{symA}), 0, 8)
	b := NewCieRecord(NewContext(), newCieTestSection(contents, rels, []*Symbol{symB}), 0, 8)

	assert.False(t, a.Equals(b))
}

func TestCieEqualityDiffersOnContents(t *testing.T) {
	sym := NewSymbol("x")
	rels := []Reloc{}
	syms := []*Symbol{sym}

	a := NewCieRecord(NewContext(), newCieTestSection([]byte{1, 2, 3, 4}, rels, syms), 0, 4)
	b := NewCieRecord(NewContext(), newCieTestSection([]byte{1, 2, 3, 5}, rels, syms), 0, 4)

	assert.False(t, a.Equals(b))
}
