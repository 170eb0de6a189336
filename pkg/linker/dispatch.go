package linker

import (
	"debug/elf"
	"fmt"
)

// ScanRelocations runs the classifier and dispatcher over every
// relocation in the section, in input order, recording side effects on
// the referenced symbols and on ctx/file. An undefined reference is
// diagnosed immediately rather than classified (there is no symbol kind
// to classify it against).
func (i *InputSection) ScanRelocations(ctx *Context) {
	isToc := i.Name() == ".toc"

	for _, rel := range i.GetRels(ctx) {
		sym := i.symbolAt(rel.Sym)

		if sym.File == nil && !sym.IsAbsolute() {
			ctx.recordUndefError(sym.Name, i.undefFragment(rel.Offset))
			continue
		}

		if i.Arch.IsRISCV() {
			if rel.Type == uint32(elf.R_RISCV_TLS_GOT_HI20) {
				sym.AddFlags(NeedsGotTp)
				continue
			}
			if rel.Type == uint32(elf.R_RISCV_NONE) || rel.Type == uint32(elf.R_RISCV_RELAX) {
				continue
			}
		}

		shape, ok := i.Arch.RelocShape(rel.Type)
		if !ok {
			continue
		}

		action := GetRelAction(ctx, sym, shape, isToc)
		i.dispatch(ctx, sym, action)
	}
}

// dispatch converts one Action into its side effects: demand flags,
// num_dynrel accounting, text-relocation policy and diagnostics.
func (i *InputSection) dispatch(ctx *Context, sym *Symbol, action Action) {
	switch action {
	case ActionNone:
		// Resolved fully at link time; nothing to record.

	case ActionError:
		ctx.Error(fmt.Sprintf(
			"%s: relocation against symbol `%s' can not be used; recompile with -fPIC or -fno-PIC",
			i.File.String(), sym.Name))

	case ActionCopyrel:
		if !ctx.Args.ZCopyreloc {
			ctx.Error(fmt.Sprintf(
				"%s: relocation against symbol `%s' can not be used; recompile with -fPIC or -fno-PIC",
				i.File.String(), sym.Name))
			return
		}
		if sym.Visibility() == uint8(elf.STV_PROTECTED) {
			ctx.Error(fmt.Sprintf(
				"cannot make copy relocation for protected symbol `%s', defined in %s",
				sym.Name, i.File.String()))
			return
		}
		sym.AddFlags(NeedsCopyrel)

	case ActionPlt:
		sym.AddFlags(NeedsPlt)

	case ActionCplt:
		sym.AddFlags(NeedsCplt)

	case ActionDynrel:
		i.checkTextrel(ctx)
		i.File.NumDynrel.Add(1)

	case ActionBaserel:
		i.checkTextrel(ctx)
		if !i.isRelrReloc(ctx) {
			i.File.NumDynrel.Add(1)
		}
	}
}

// checkTextrel implements spec.md §4.4's text-relocation policy: a
// DYNREL/BASEREL disposition against a non-writable section is a hard
// -fPIC error under z_text, otherwise a warning if warn_textrel is set.
// In every case ctx.has_textrel is set, so a DT_TEXTREL entry can be
// emitted downstream.
func (i *InputSection) checkTextrel(ctx *Context) {
	if i.Shdr().Flags&uint64(elf.SHF_WRITE) != 0 {
		return
	}
	if ctx.Args.ZText {
		ctx.Error(fmt.Sprintf(
			"%s: relocation against symbol in read-only section can not be used; recompile with -fPIC",
			i.File.String()))
	} else if ctx.Args.WarnTextrel {
		ctx.Warn(fmt.Sprintf("%s: relocation against symbol in read-only section", i.File.String()))
	}
	ctx.SetTextrel()
}

// isRelrReloc decides whether a BASEREL disposition is RELR-packable
// and therefore should not be counted against num_dynrel. Real RELR
// eligibility depends on output-section layout this engine doesn't own
// (spec.md §9's open question: "its contract for BASEREL demotion is
// taken as given"); no section is ever RELR-eligible here, which keeps
// num_dynrel's accounting exact for every BASEREL disposition this
// engine can see on its own.
func (i *InputSection) isRelrReloc(ctx *Context) bool {
	return false
}

// undefFragment builds the "referenced by" text for one relocation
// site, used by record_undef_error/report_undef_errors (§4.7).
func (i *InputSection) undefFragment(offset uint64) string {
	source := i.File.GetSourceName()
	if source == "" {
		source = i.Name()
	}

	fn := i.GetFuncName(offset)
	obj := i.File.String()
	if fn != "" {
		obj = fmt.Sprintf("%s:(%s)", obj, fn)
	}

	return fmt.Sprintf(">>> referenced by %s\n>>> %s", source, obj)
}
