package linker

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureStderr redirects os.Stderr for the duration of fn and returns
// everything written to it. Checkpoint writes its flushed warnings/errors
// there, so this is how the test observes the message ReportUndefErrors
// actually produced rather than just the drained-map side effect.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	assert.NoError(t, err)
	saved := os.Stderr
	os.Stderr = w
	fn()
	os.Stderr = saved
	assert.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	assert.NoError(t, err)
	return string(out)
}

// Scenario 6: five references to an undefined symbol collapse into one
// block with three site fragments and a "referenced 2 more times" tail
// (the undefSiteCap and remainder-count line diagnostics.go implements).
func TestDiagnosticTruncation(t *testing.T) {
	ctx := NewContext()
	ctx.Args.UnresolvedSymbols = UnresolvedWarn
	for i := 0; i < 5; i++ {
		ctx.recordUndefError("foo", fmt.Sprintf(">>> referenced by site %d", i))
	}

	output := captureStderr(t, func() {
		ReportUndefErrors(ctx)
	})

	assert.Contains(t, output, "undefined symbol: foo")
	assert.Contains(t, output, ">>> referenced by site 0")
	assert.Contains(t, output, ">>> referenced by site 1")
	assert.Contains(t, output, ">>> referenced by site 2")
	assert.NotContains(t, output, ">>> referenced by site 3")
	assert.NotContains(t, output, ">>> referenced by site 4")
	assert.Contains(t, output, ">>> referenced 2 more times")

	assert.Len(t, ctx.errors, 0, "checkpoint flushes buffered output before returning")
}

func TestReportUndefErrorsDrainsMap(t *testing.T) {
	ctx := NewContext()
	ctx.Args.UnresolvedSymbols = UnresolvedWarn
	for i := 0; i < 5; i++ {
		ctx.recordUndefError("foo", ">>> referenced by site")
	}

	ctx.mu.Lock()
	fragments := ctx.undefErrors["foo"]
	ctx.mu.Unlock()
	assert.Len(t, fragments, 5)

	captureStderr(t, func() {
		ReportUndefErrors(ctx)
	})
	// UnresolvedWarn routes to warnings, which Checkpoint also flushes
	// (to stderr) rather than leaving buffered — assert the map itself
	// was drained instead.
	ctx.mu.Lock()
	_, stillPresent := ctx.undefErrors["foo"]
	ctx.mu.Unlock()
	assert.False(t, stillPresent)
}

func TestGetFuncName(t *testing.T) {
	obj := &ObjectFile{}
	obj.ElfSyms = []Sym{
		{}, // index 0 is always the null symbol
		{Name: 0, Info: uint8(elf.STT_FUNC), Shndx: 1, Val: 0x10, Size: 0x20},
	}
	obj.SymbolStrtab = []byte("\x00main\x00")
	obj.ElfSyms[1].Name = 1

	isec := &InputSection{File: obj, Shndx: 1}
	assert.Equal(t, "main", isec.GetFuncName(0x18))
	assert.Equal(t, "", isec.GetFuncName(0x30))
}
