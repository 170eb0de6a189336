package linker

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/weldlink/weld/pkg/utils"
)

// UnresolvedSymbolsMode selects how report_undef_errors routes an
// undefined-symbol block.
type UnresolvedSymbolsMode int

const (
	UnresolvedError UnresolvedSymbolsMode = iota
	UnresolvedWarn
	UnresolvedIgnore
)

// ContextArgs mirrors the command-line settings the engine consults.
// Grounded on ctx.arg in the original mold source and on
// unicornx-rvld's ContextArgs, extended with the shared/pie/z_*
// relocation-policy knobs spec.md §3 requires of Context.
type ContextArgs struct {
	Output            string
	Shared            bool
	Pie               bool
	ZText             bool
	ZCopyreloc        bool
	WarnTextrel       bool
	Demangle          bool
	UnresolvedSymbols UnresolvedSymbolsMode
}

// Context is the process-wide state every operation takes explicitly
// rather than reaching for a singleton, per spec.md §9 "Design notes" —
// its concurrently-written sub-fields (hasTextrel, undefErrors,
// outputSections, buffered errors/warnings) are guarded so that
// many goroutines scanning different sections can share one Context
// safely.
type Context struct {
	Args ContextArgs

	Objs []*ObjectFile

	mu             sync.Mutex
	outputSections map[outputSectionKey]*OutputSection
	undefErrors    map[string][]string
	errors         []string
	warnings       []string

	symMu         sync.Mutex
	symbolMap     map[string]*Symbol
	nextDynsymIdx int32

	hasTextrel atomic.Bool

	// pool owns every decompression-arena buffer allocated for the life
	// of the link; sections hold non-owning views into it.
	poolMu sync.Mutex
	pool   [][]byte
}

func NewContext() *Context {
	return &Context{
		Args: ContextArgs{
			Output:            "a.out",
			UnresolvedSymbols: UnresolvedError,
		},
		outputSections: make(map[outputSectionKey]*OutputSection),
		undefErrors:    make(map[string][]string),
		symbolMap:      make(map[string]*Symbol),
	}
}

// GetSymbolByName returns the (possibly newly interned) global Symbol
// with the given name. Every translation unit's reference to a given
// global name resolves to the same *Symbol.
func (ctx *Context) GetSymbolByName(name string) *Symbol {
	ctx.symMu.Lock()
	defer ctx.symMu.Unlock()
	if sym, ok := ctx.symbolMap[name]; ok {
		return sym
	}
	sym := NewSymbol(name)
	ctx.symbolMap[name] = sym
	return sym
}

// OutputMode returns the classifier's output-mode index: shared -> 0,
// pie -> 1, position-dependent executable -> 2.
func (ctx *Context) OutputMode() int {
	switch {
	case ctx.Args.Shared:
		return 0
	case ctx.Args.Pie:
		return 1
	default:
		return 2
	}
}

// AllocFromPool reserves a buffer of size n, owned by the context for
// the remainder of the link, and returns it for a section's
// decompressor to fill in.
func (ctx *Context) AllocFromPool(n int) []byte {
	buf := make([]byte, n)
	ctx.poolMu.Lock()
	ctx.pool = append(ctx.pool, buf)
	ctx.poolMu.Unlock()
	return buf
}

// SetTextrel records that at least one text relocation was required.
// Write-once-true: once set it is never cleared, so repeated calls from
// concurrent scans are race-free under this semantics.
func (ctx *Context) SetTextrel() {
	ctx.hasTextrel.Store(true)
}

func (ctx *Context) HasTextrel() bool {
	return ctx.hasTextrel.Load()
}

// Fatal aborts the process immediately; used only for conditions that
// invalidate the whole link (corrupt input, I/O failure).
func (ctx *Context) Fatal(msg string) {
	utils.Fatal(msg)
}

// Error buffers a recoverable error for the next Checkpoint.
func (ctx *Context) Error(msg string) {
	ctx.mu.Lock()
	ctx.errors = append(ctx.errors, msg)
	ctx.mu.Unlock()
}

// Warn buffers a warning for the next Checkpoint.
func (ctx *Context) Warn(msg string) {
	ctx.mu.Lock()
	ctx.warnings = append(ctx.warnings, msg)
	ctx.mu.Unlock()
}

// recordUndefError appends one "referenced by" fragment for symName.
// Insertion and append are synchronized under the context's mutex, since
// any section referencing the symbol may record a fragment concurrently.
func (ctx *Context) recordUndefError(symName, fragment string) {
	ctx.mu.Lock()
	ctx.undefErrors[symName] = append(ctx.undefErrors[symName], fragment)
	ctx.mu.Unlock()
}

// Checkpoint flushes buffered warnings then errors to stderr, and
// aborts the link if any buffered error was queued. This is the
// barrier spec.md §4.7/§7 call ctx.checkpoint().
func (ctx *Context) Checkpoint() {
	ctx.mu.Lock()
	warnings := ctx.warnings
	errs := ctx.errors
	ctx.warnings = nil
	ctx.errors = nil
	ctx.mu.Unlock()

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "weld: warning: %s\n", w)
	}
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "weld: error: %s\n", e)
	}
	if len(errs) > 0 {
		os.Exit(1)
	}
}
