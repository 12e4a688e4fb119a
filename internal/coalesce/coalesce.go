// Package coalesce merges a newly freed block with whichever free
// neighbors are physically adjacent to it, the four-case state machine at
// the heart of keeping the segregated free lists free of fragmentation.
package coalesce

import (
	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/freelist"
)

// Merge coalesces the free block at addr with its physical neighbors and
// (re)inserts the resulting block into the free lists. It returns the
// address of the merged block, which may be addr itself, its predecessor,
// or unchanged if neither neighbor was free.
//
// The block at addr must already be marked free in its header, and must
// not yet be present in any free list; Merge inserts it (and any neighbor
// it absorbs) exactly once, matching coalesce_block.
func Merge(nav block.Navigator, lists *freelist.Lists, addr uint32) uint32 {
	next := nav.Next(addr)
	header := nav.Header(addr)
	prevAlloc := header.PrevAlloc()
	nextAlloc := nav.Header(next).Alloc()

	var merged uint32

	switch {
	case prevAlloc && nextAlloc:
		// Case 1: both neighbors allocated. Nothing to merge.
		lists.InsertAuto(addr)
		merged = addr

	case !prevAlloc && nextAlloc:
		// Case 2: previous block is free.
		prev, ok := nav.Prev(addr)
		if !ok {
			panic("coalesce: prev_alloc clear but no previous block exists")
		}
		size := nav.Size(addr)
		prevSize := nav.Size(prev)
		prevHeader := nav.Header(prev)

		lists.DeleteAuto(prev)
		nav.WriteBlock(prev, prevSize+size, false, prevHeader.PrevAlloc(), prevHeader.PrevMini())
		lists.InsertAuto(prev)
		merged = prev

	case prevAlloc && !nextAlloc:
		// Case 3: next block is free.
		size := nav.Size(addr)
		nextSize := nav.Size(next)

		lists.DeleteAuto(next)
		nav.WriteBlock(addr, size+nextSize, false, header.PrevAlloc(), header.PrevMini())
		lists.InsertAuto(addr)
		merged = addr

	default:
		// Case 4: both neighbors free.
		prev, ok := nav.Prev(addr)
		if !ok {
			panic("coalesce: prev_alloc clear but no previous block exists")
		}
		size := nav.Size(addr)
		prevSize := nav.Size(prev)
		nextSize := nav.Size(next)
		prevHeader := nav.Header(prev)

		lists.DeleteAuto(next)
		lists.DeleteAuto(prev)
		nav.WriteBlock(prev, prevSize+size+nextSize, false, prevHeader.PrevAlloc(), prevHeader.PrevMini())
		lists.InsertAuto(prev)
		merged = prev
	}

	// The block following the merge result gets prev_alloc false, since
	// merged is free, and prev_mini set from merged's size: cases 2-4 always
	// produce at least 32 bytes, but case 1 can leave a 16-byte mini block.
	after := nav.Next(merged)
	afterHeader := nav.Header(after)
	nav.WriteBlock(after, afterHeader.Size(), afterHeader.Alloc(), false, nav.Size(merged) == block.MinSize)

	return merged
}
