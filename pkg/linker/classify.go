package linker

// Action is the classifier's verdict for one relocation: what the
// dispatcher must do about it before the writer applies it.
type Action int

const (
	ActionNone Action = iota
	ActionError
	ActionCopyrel
	ActionPlt
	ActionCplt
	ActionDynrel
	ActionBaserel
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionError:
		return "ERROR"
	case ActionCopyrel:
		return "COPYREL"
	case ActionPlt:
		return "PLT"
	case ActionCplt:
		return "CPLT"
	case ActionDynrel:
		return "DYNREL"
	case ActionBaserel:
		return "BASEREL"
	default:
		return "UNKNOWN"
	}
}

// The three decision tables are indexed [outputMode][symKind], matching
// spec.md §4.3's row/column layout (row 0 shared, row 1 pie, row 2 pde;
// column order abs/local/impdata/impcode).
var tableAbsNarrow = [3][4]Action{
	{ActionNone, ActionError, ActionError, ActionError},
	{ActionNone, ActionError, ActionError, ActionError},
	{ActionNone, ActionNone, ActionCopyrel, ActionCplt},
}

var tableAbsWord = [3][4]Action{
	{ActionNone, ActionBaserel, ActionDynrel, ActionDynrel},
	{ActionNone, ActionBaserel, ActionDynrel, ActionDynrel},
	{ActionNone, ActionNone, ActionCopyrel, ActionCplt},
}

// tableAbsWordToc is the PPC64 .toc relaxation of tableAbsWord: its
// position-dependent row resolves everything dynamically rather than
// emitting copy relocations or canonical PLTs, since .toc is
// compiler-synthesized GOT-like storage no user code reads directly.
var tableAbsWordToc = [3][4]Action{
	tableAbsWord[0],
	tableAbsWord[1],
	{ActionNone, ActionNone, ActionDynrel, ActionDynrel},
}

var tablePcrel = [3][4]Action{
	{ActionError, ActionNone, ActionError, ActionPlt},
	{ActionError, ActionNone, ActionCopyrel, ActionPlt},
	{ActionNone, ActionNone, ActionCopyrel, ActionCplt},
}

// RelocShape selects which of the three decision tables applies to a
// given relocation type.
type RelocShape int

const (
	ShapeAbsNarrow RelocShape = iota
	ShapeAbsWord
	ShapePcrel
)

// GetRelAction is the classifier entry point: a pure function of output
// mode, symbol kind and relocation shape. isToc selects the PPC64 .toc
// relaxation of the absolute-word table.
func GetRelAction(ctx *Context, sym *Symbol, shape RelocShape, isToc bool) Action {
	mode := ctx.OutputMode()
	k := sym.kind()

	switch shape {
	case ShapeAbsNarrow:
		return tableAbsNarrow[mode][k]
	case ShapeAbsWord:
		if isToc {
			return tableAbsWordToc[mode][k]
		}
		return tableAbsWord[mode][k]
	case ShapePcrel:
		return tablePcrel[mode][k]
	default:
		return ActionError
	}
}
