package linker

import (
	"runtime"
	"sync"
)

// maxParallel bounds how many section tasks run at once, via a
// buffered-channel semaphore — the pack has no worker-pool library
// (golang.org/x/sync/errgroup included) to reach for instead.
var maxParallel = runtime.GOMAXPROCS(0)

// ScanRelocationsPass runs the scan phase over every object file's
// sections in parallel, one goroutine per file (each file's own
// sections are scanned sequentially within that goroutine, matching
// spec.md §5: no ordering guarantee between sections, but a single
// section's scan runs start-to-finish without interleaving with
// another scan of the same section). Callers must run this to
// completion — and typically call ctx.Checkpoint() — before starting
// WritePass. The writer does not read the demand flags set here; it
// recomputes each relocation's Action with the same GetRelAction call.
func ScanRelocationsPass(ctx *Context) {
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	for _, obj := range ctx.Objs {
		obj := obj
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			obj.ScanRelocations(ctx)
		}()
	}
	wg.Wait()
}

// WriteResult pairs one section's DynReloc emissions with the section
// that produced them, for a caller collecting a full .rela.dyn image.
type WriteResult struct {
	Section *InputSection
	Relocs  []DynReloc
}

// WritePass runs the write phase in parallel over every section of every
// object file for which bufFor returns a non-nil buffer, allocated or
// not, writing into that buffer. There is a global barrier between this and
// ScanRelocationsPass, enforced by the caller, not by this function.
func WritePass(ctx *Context, bufFor func(*InputSection) []byte) []WriteResult {
	type job struct {
		isec *InputSection
		buf  []byte
	}

	var jobs []job
	for _, obj := range ctx.Objs {
		for _, isec := range obj.Sections {
			if isec == nil {
				continue
			}
			buf := bufFor(isec)
			if buf == nil {
				continue
			}
			jobs = append(jobs, job{isec: isec, buf: buf})
		}
	}

	results := make([]WriteResult, len(jobs))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	for idx, j := range jobs {
		idx, j := idx, j
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			relocs := j.isec.WriteTo(ctx, j.buf)
			results[idx] = WriteResult{Section: j.isec, Relocs: relocs}
		}()
	}
	wg.Wait()
	return results
}
