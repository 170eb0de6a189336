package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/weldlink/weld/pkg/linker"
	"github.com/weldlink/weld/pkg/utils"
)

var version string

// main drives the two phases this engine owns — scan, then write —
// over every object file named on the command line. Everything a real
// linker does around these phases (symbol resolution/liveness marking,
// output-section layout, PLT/GOT/dynsym emission, final image assembly)
// belongs to a driver this engine doesn't implement; this command
// exists to exercise the engine end to end and report what it decided.
func main() {
	ctx := linker.NewContext()
	operands := parseArgs(ctx)

	if len(operands) == 0 {
		utils.Fatal("no input files")
	}

	for _, name := range operands {
		obj := linker.NewObjectFile(linker.MustNewFile(name))
		obj.Parse(ctx)
		ctx.Objs = append(ctx.Objs, obj)
	}

	linker.ScanRelocationsPass(ctx)
	linker.ReportUndefErrors(ctx)

	results := linker.WritePass(ctx, func(isec *linker.InputSection) []byte {
		return make([]byte, isec.Shdr().Size)
	})
	ctx.Checkpoint()

	var dynrelCount int64
	for _, obj := range ctx.Objs {
		dynrelCount += obj.NumDynrel.Load()
	}

	fmt.Printf("weld: scanned %d object file(s)\n", len(ctx.Objs))
	fmt.Printf("weld: emitted %d section(s), %d dynamic relocation(s)\n", len(results), dynrelCount)
	if ctx.HasTextrel() {
		fmt.Println("weld: DT_TEXTREL required")
	}
}

func parseArgs(ctx *linker.Context) []string {
	args := os.Args[1:]

	dashes := func(name string) []string {
		if len(name) == 1 {
			return []string{"-" + name}
		}
		return []string{"-" + name, "--" + name}
	}

	arg := ""
	readArg := func(name string) bool {
		if len(args) == 0 {
			return false
		}
		for _, opt := range dashes(name) {
			if args[0] == opt {
				if len(args) == 1 {
					utils.Fatal(fmt.Sprintf("option -%s: argument missing", name))
				}
				arg = args[1]
				args = args[2:]
				return true
			}

			prefix := opt
			if len(name) > 1 {
				prefix += "="
			}
			if strings.HasPrefix(args[0], prefix) {
				arg = args[0][len(prefix):]
				args = args[1:]
				return true
			}
		}
		return false
	}

	readFlag := func(name string) bool {
		if len(args) == 0 {
			return false
		}
		for _, opt := range dashes(name) {
			if args[0] == opt {
				args = args[1:]
				return true
			}
		}
		return false
	}

	remaining := make([]string, 0)
	for len(args) > 0 {
		switch {
		case readFlag("help"):
			fmt.Printf("usage: %s [options] file...\n", os.Args[0])
			os.Exit(0)
		case readFlag("v") || readFlag("version"):
			fmt.Printf("weld %s\n", version)
			os.Exit(0)
		case readArg("o") || readArg("output"):
			ctx.Args.Output = arg
		case readFlag("shared"):
			ctx.Args.Shared = true
		case readFlag("pie"):
			ctx.Args.Pie = true
		case readArg("z"):
			switch arg {
			case "text":
				ctx.Args.ZText = true
			case "notext", "notextrel":
				ctx.Args.ZText = false
			case "copyreloc":
				ctx.Args.ZCopyreloc = true
			case "nocopyreloc":
				ctx.Args.ZCopyreloc = false
			default:
				// Unrecognized -z suboption: ignored, matching the
				// teacher's policy of tolerating unknown pass-through
				// linker flags rather than failing the whole invocation.
			}
		case readFlag("warn-textrel"):
			ctx.Args.WarnTextrel = true
		case readFlag("no-warn-textrel"):
			ctx.Args.WarnTextrel = false
		case readFlag("demangle"):
			ctx.Args.Demangle = true
		case readFlag("no-demangle"):
			ctx.Args.Demangle = false
		case readArg("unresolved-symbols"):
			switch arg {
			case "error", "report-all":
				ctx.Args.UnresolvedSymbols = linker.UnresolvedError
			case "warn", "warn-all":
				ctx.Args.UnresolvedSymbols = linker.UnresolvedWarn
			case "ignore-all", "ignore":
				ctx.Args.UnresolvedSymbols = linker.UnresolvedIgnore
			default:
				utils.Fatal(fmt.Sprintf("unknown -unresolved-symbols argument: %s", arg))
			}
		case readArg("sysroot") ||
			readFlag("static") ||
			readArg("plugin") ||
			readArg("plugin-opt") ||
			readFlag("as-needed") ||
			readFlag("start-group") ||
			readFlag("end-group") ||
			readArg("hash-style") ||
			readArg("build-id") ||
			readFlag("s") ||
			readFlag("no-relax"):
			// Ignored.
		default:
			if args[0][0] == '-' {
				utils.Fatal(fmt.Sprintf("unknown command line option: %s", args[0]))
			}
			remaining = append(remaining, args[0])
			args = args[1:]
		}
	}

	return remaining
}
