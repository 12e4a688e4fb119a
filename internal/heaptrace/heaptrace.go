// Package heaptrace provides the allocator's debug output: a leveled
// tracer over allocation/free/realloc/calloc activity and an on-demand
// heap dump, following the host bindings' DebugLevel convention rather
// than pulling in a logging library the rest of the stack never needed.
package heaptrace

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/segclass"
)

// Level controls how much heaptrace emits.
type Level int

const (
	// LevelOff disables all trace output.
	LevelOff Level = iota
	// LevelError logs only failed operations (OOM, corruption detected).
	LevelError
	// LevelInfo logs every malloc/free/realloc/calloc call.
	LevelInfo
	// LevelVerbose logs the same lines as LevelInfo; no level dumps block
	// structure, which only DumpHeap writes when called directly.
	LevelVerbose
)

// Tracer writes allocator activity to an io.Writer at a configured level.
type Tracer struct {
	out   io.Writer
	level Level

	mallocs  atomic.Uint64
	frees    atomic.Uint64
	reallocs atomic.Uint64
	callocs  atomic.Uint64
}

// New builds a Tracer writing to out at the given level. A nil out is
// valid when level is LevelOff; no writes are attempted in that case.
func New(out io.Writer, level Level) *Tracer {
	return &Tracer{out: out, level: level}
}

func (t *Tracer) printf(format string, args ...any) {
	if t.level == LevelOff || t.out == nil {
		return
	}
	fmt.Fprintf(t.out, format, args...)
}

// Malloc records a successful or failed allocation request.
func (t *Tracer) Malloc(size, addr uint32, err error) {
	t.mallocs.Add(1)
	if err != nil {
		if t.level >= LevelError {
			t.printf("[malloc] size=%d failed: %v\n", size, err)
		}
		return
	}
	if t.level >= LevelInfo {
		t.printf("[malloc] size=%d -> 0x%x\n", size, addr)
	}
}

// Free records a free call.
func (t *Tracer) Free(addr uint32, err error) {
	t.frees.Add(1)
	if err != nil {
		if t.level >= LevelError {
			t.printf("[free] 0x%x failed: %v\n", addr, err)
		}
		return
	}
	if t.level >= LevelInfo {
		t.printf("[free] 0x%x\n", addr)
	}
}

// Realloc records a realloc call and its outcome.
func (t *Tracer) Realloc(oldAddr uint32, newSize, newAddr uint32, err error) {
	t.reallocs.Add(1)
	if err != nil {
		if t.level >= LevelError {
			t.printf("[realloc] 0x%x size=%d failed: %v\n", oldAddr, newSize, err)
		}
		return
	}
	if t.level >= LevelInfo {
		t.printf("[realloc] 0x%x size=%d -> 0x%x\n", oldAddr, newSize, newAddr)
	}
}

// Calloc records a calloc call.
func (t *Tracer) Calloc(n, size, addr uint32, err error) {
	t.callocs.Add(1)
	if err != nil {
		if t.level >= LevelError {
			t.printf("[calloc] n=%d size=%d failed: %v\n", n, size, err)
		}
		return
	}
	if t.level >= LevelInfo {
		t.printf("[calloc] n=%d size=%d -> 0x%x\n", n, size, addr)
	}
}

// Stats reports cumulative call counts.
type Stats struct {
	Mallocs, Frees, Reallocs, Callocs uint64
}

// Stats returns the tracer's cumulative call counters.
func (t *Tracer) Stats() Stats {
	return Stats{
		Mallocs:  t.mallocs.Load(),
		Frees:    t.frees.Load(),
		Reallocs: t.reallocs.Load(),
		Callocs:  t.callocs.Load(),
	}
}

// DumpHeap walks the block list from firstBlock and writes one line per
// block: its address, size, allocation status, and (for free blocks)
// which segregated bucket it belongs to. It runs only when called (for
// example through Heap.DumpHeap), never from the Tracer's logging methods.
func DumpHeap(out io.Writer, nav block.Navigator, firstBlock uint32) {
	addr := firstBlock
	for {
		h := nav.Header(addr)
		if h.Size() == 0 {
			fmt.Fprintf(out, "0x%08x epilogue\n", addr)
			return
		}
		status := "alloc"
		extra := ""
		if !h.Alloc() {
			status = "free"
			extra = fmt.Sprintf(" bucket=%d", segclass.Of(h.Size()))
		}
		fmt.Fprintf(out, "0x%08x size=%-6d %s%s\n", addr, h.Size(), status, extra)
		addr = nav.Next(addr)
	}
}
