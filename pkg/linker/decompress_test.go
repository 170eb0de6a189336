package linker

import (
	"bytes"
	"compress/zlib"
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weldlink/weld/pkg/utils"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	return buf.Bytes()
}

// Scenario 5: a legacy .zdebug_info section with "ZLIB" + u64(100) +
// zlib stream decompresses to exactly 100 bytes, and a second call is
// a no-op memcpy of the already-materialized bytes.
func TestDecompressLegacyZdebugRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 100)
	compressed := zlibCompress(t, payload)

	header := append([]byte("ZLIB"), 0, 0, 0, 0, 0, 0, 0, 100)
	raw := append(header, compressed...)

	isec := &InputSection{
		legacyZdebug: true,
		Compressed:   true,
		ShSize:       100,
		Contents:     raw,
	}
	ctx := NewContext()
	isec.decompress(ctx)

	assert.Equal(t, 100, len(isec.Contents))
	assert.False(t, isec.Compressed)

	saved := isec.Contents
	isec.decompress(ctx)
	assert.Equal(t, saved, isec.Contents)
}

func TestDecompressModernChdrRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x7a}, 64)
	compressed := zlibCompress(t, payload)

	chdr := Chdr{Type: ELFCOMPRESS_ZLIB, Size: 64, AddrAlign: 8}
	buf := make([]byte, ChdrSize)
	utils.Write(buf, chdr)
	raw := append(buf, compressed...)

	isec := &InputSection{
		Compressed: true,
		ShSize:     64,
		Contents:   raw,
	}
	ctx := NewContext()
	isec.decompress(ctx)

	assert.Equal(t, 64, len(isec.Contents))
	for _, b := range isec.Contents {
		assert.Equal(t, byte(0x7a), b)
	}
}

func TestIsNobits(t *testing.T) {
	obj := &ObjectFile{}
	obj.ElfSections = []Shdr{{Type: uint32(elf.SHT_NOBITS)}}
	isec := &InputSection{File: obj, Shndx: 0, ShSize: 10}
	assert.True(t, isec.isNobits())

	obj.ElfSections[0].Type = uint32(elf.SHT_PROGBITS)
	isec.ShSize = 0
	assert.True(t, isec.isNobits())

	isec.ShSize = 10
	assert.False(t, isec.isNobits())
}
