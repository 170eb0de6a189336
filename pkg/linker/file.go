package linker

import (
	"os"

	"github.com/weldlink/weld/pkg/utils"
)

// File is the raw bytes of one input object, memory-resident for the
// lifetime of the link. InputSection.Contents may point directly into
// File.Contents (uncompressed sections) or into the context's string
// pool (decompressed sections) — never into a copy owned by the section
// itself.
type File struct {
	Name     string
	Contents []byte
}

func MustNewFile(filename string) *File {
	contents, err := os.ReadFile(filename)
	utils.MustNo(err)
	return &File{Name: filename, Contents: contents}
}
