package linker

import (
	"bytes"
	"compress/zlib"
	"debug/elf"
	"io"

	"github.com/weldlink/weld/pkg/utils"
)

// decompress inflates a compressed section's payload into a buffer
// owned by ctx's pool, and repoints Contents at the inflated bytes. It
// is a no-op for sections that were never compressed. Called eagerly
// by NewInputSection for REL-class architectures, and lazily by WriteTo
// otherwise (spec.md §4.1).
func (i *InputSection) decompress(ctx *Context) {
	if !i.Compressed || len(i.Contents) == 0 {
		return
	}

	var payload []byte
	switch {
	case i.legacyZdebug:
		if len(i.Contents) == 12 && i.ShSize == 0 {
			i.Contents = nil
			i.Compressed = false
			return
		}
		if len(i.Contents) <= 12 || string(i.Contents[:4]) != "ZLIB" {
			ctx.Fatal("corrupted compressed section")
			return
		}
		payload = i.Contents[12:]
	default:
		if len(i.Contents) <= ChdrSize {
			ctx.Fatal("corrupted compressed section")
			return
		}
		var chdr Chdr
		utils.Read(i.Contents, &chdr)
		if chdr.Type != ELFCOMPRESS_ZLIB {
			ctx.Fatal("unsupported compression type")
		}
		payload = i.Contents[ChdrSize:]
	}

	zr, err := zlib.NewReader(bytes.NewReader(payload))
	utils.MustNo(err)
	defer zr.Close()

	out := ctx.AllocFromPool(int(i.ShSize))
	_, err = io.ReadFull(zr, out)
	utils.MustNo(err)

	i.Contents = out
	i.Compressed = false
}

// isNobits reports whether this section contributes no bytes of its own
// (.bss and friends) and should be skipped by the writer.
func (i *InputSection) isNobits() bool {
	return i.Shdr().Type == uint32(elf.SHT_NOBITS) || i.ShSize == 0
}
