package linker

import (
	"debug/elf"
	"fmt"
	"sort"
)

// GetFuncName finds the STT_FUNC symbol in this file's symbol table
// whose section matches this section and whose [st_value, st_value+
// st_size) interval contains offset, returning its name (empty if
// none matches). Always returns the raw symbol name: no C++ demangler
// exists anywhere in the example pack to wire behind ctx.Args.Demangle.
func (i *InputSection) GetFuncName(offset uint64) string {
	for idx := range i.File.ElfSyms {
		esym := &i.File.ElfSyms[idx]
		if esym.Type() != elf.STT_FUNC {
			continue
		}
		if i.File.GetShndx(esym, idx) != int64(i.Shndx) {
			continue
		}
		if offset >= esym.Val && offset < esym.Val+esym.Size {
			return ElfGetName(i.File.SymbolStrtab, esym.Name)
		}
	}
	return ""
}

const undefSiteCap = 3

// ReportUndefErrors drains ctx's undefined-symbol map, emitting one
// block per symbol: "undefined symbol: <name>" followed by up to the
// first three recorded reference fragments, then a summary line for any
// remainder. Each block is routed to the error or warning channel, or
// dropped, per ctx.Args.UnresolvedSymbols. Always ends with a
// checkpoint, which aborts the link if anything landed in the error
// channel.
func ReportUndefErrors(ctx *Context) {
	ctx.mu.Lock()
	names := make([]string, 0, len(ctx.undefErrors))
	for name := range ctx.undefErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	errs := ctx.undefErrors
	ctx.undefErrors = make(map[string][]string)
	ctx.mu.Unlock()

	for _, name := range names {
		fragments := errs[name]
		msg := fmt.Sprintf("undefined symbol: %s\n", name)
		n := len(fragments)
		if n > undefSiteCap {
			n = undefSiteCap
		}
		for _, f := range fragments[:n] {
			msg += f + "\n"
		}
		if len(fragments) > undefSiteCap {
			msg += fmt.Sprintf(">>> referenced %d more times\n", len(fragments)-undefSiteCap)
		}

		switch ctx.Args.UnresolvedSymbols {
		case UnresolvedError:
			ctx.Error(msg)
		case UnresolvedWarn:
			ctx.Warn(msg)
		case UnresolvedIgnore:
			// Dropped.
		}
	}

	ctx.Checkpoint()
}
