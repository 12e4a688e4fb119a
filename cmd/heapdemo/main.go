// Command heapdemo exercises the segregated-fit allocator with a small
// allocate/free workload and prints its final statistics and a heap
// consistency report, mirroring the host bindings' own cmd entrypoint.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-segheap/segheap/internal/arena"
	"github.com/go-segheap/segheap/internal/heaptrace"
	"github.com/go-segheap/segheap/pkg/heap"
)

func main() {
	verbose := flag.Bool("v", false, "trace every malloc/free/realloc/calloc call")
	dump := flag.Bool("dump", false, "print a block-by-block heap dump before exiting")
	flag.Parse()

	level := heaptrace.LevelOff
	if *verbose {
		level = heaptrace.LevelInfo
	}

	h, err := heap.New(arena.NewNative(), heap.Config{
		TraceLevel:     level,
		TraceOutput:    os.Stdout,
		CheckOnEveryOp: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "heapdemo: failed to initialize heap: %v\n", err)
		os.Exit(1)
	}

	if err := run(h); err != nil {
		fmt.Fprintf(os.Stderr, "heapdemo: %v\n", err)
		os.Exit(1)
	}

	stats := h.Stats()
	fmt.Printf("mallocs=%d frees=%d reallocs=%d callocs=%d\n",
		stats.Mallocs, stats.Frees, stats.Reallocs, stats.Callocs)

	report := h.Check()
	if !report.OK() {
		fmt.Fprintf(os.Stderr, "heapdemo: heap failed consistency check after workload:\n")
		for _, v := range report.Violations {
			fmt.Fprintf(os.Stderr, "  %s\n", v.String())
		}
		os.Exit(1)
	}
	fmt.Println("heap consistent")

	if *dump {
		h.DumpHeap(os.Stdout)
	}
}

// run drives a small workload: a spread of allocation sizes including
// mini blocks, a growth phase that forces the arena past its initial
// chunk, reallocation in both directions, and interleaved frees to
// exercise coalescing.
func run(h *heap.Heap) error {
	sizes := []uint32{8, 16, 24, 40, 100, 512, 1000, 4096, 16, 8}
	ptrs := make([]uint32, 0, len(sizes))
	for _, s := range sizes {
		p, err := h.Malloc(s)
		if err != nil {
			return fmt.Errorf("malloc(%d): %w", s, err)
		}
		ptrs = append(ptrs, p)
	}

	grown, err := h.Realloc(ptrs[3], 2048)
	if err != nil {
		return fmt.Errorf("realloc grow: %w", err)
	}
	ptrs[3] = grown

	shrunk, err := h.Realloc(ptrs[5], 64)
	if err != nil {
		return fmt.Errorf("realloc shrink: %w", err)
	}
	ptrs[5] = shrunk

	c, err := h.Calloc(16, 8)
	if err != nil {
		return fmt.Errorf("calloc: %w", err)
	}
	ptrs = append(ptrs, c)

	for i, p := range ptrs {
		if i%2 == 0 {
			if err := h.Free(p); err != nil {
				return fmt.Errorf("free(0x%x): %w", p, err)
			}
		}
	}
	for i, p := range ptrs {
		if i%2 != 0 {
			if err := h.Free(p); err != nil {
				return fmt.Errorf("free(0x%x): %w", p, err)
			}
		}
	}
	return nil
}
