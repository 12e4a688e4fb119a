// Package heapcheck implements the allocator's consistency checker: a
// battery of independent structural checks over the block list and the
// segregated free lists, combined by logical AND so that any single
// violation fails the whole check.
package heapcheck

import (
	"fmt"

	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/freelist"
	"github.com/go-segheap/segheap/internal/segclass"
)

const none = 0

// Violation describes a single failed check, identifying which check
// failed and where, so a caller can report more than just "inconsistent".
type Violation struct {
	Check   string
	Address uint32
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at 0x%x: %s", v.Check, v.Address, v.Message)
}

// Report is the result of a full heap check: every violation found across
// every sub-check, run independently so one failure never short-circuits
// the rest.
type Report struct {
	Violations []Violation
}

// OK reports whether the heap passed every check.
func (r Report) OK() bool { return len(r.Violations) == 0 }

func (r *Report) fail(check string, addr uint32, msg string) {
	r.Violations = append(r.Violations, Violation{Check: check, Address: addr, Message: msg})
}

// Check runs every structural and free-list check against the heap
// starting at firstBlock (the block right after the prologue) and bounded
// by the arena's [lo, hi] range, plus the free lists of buckets 1..14. The
// singly-linked mini list in bucket 0 is not walked.
//
// Each sub-check contributes independently to the result: a failure in
// one never prevents the others from running, and the final verdict is
// the AND of all of them, not just the last one evaluated.
func Check(nav block.Navigator, lists *freelist.Lists, firstBlock, lo, hi uint32) Report {
	var r Report

	checkPrologue(nav, lo, &r)
	checkEpilogue(nav, firstBlock, &r)
	checkLieWithinHeap(nav, firstBlock, lo, hi, &r)
	checkBlockAlignment(nav, firstBlock, &r)
	checkHeaderFooterMatch(nav, firstBlock, &r)
	checkMinimumBlockSize(nav, firstBlock, &r)
	checkContiguousFreeBlocks(nav, firstBlock, &r)

	for i := 1; i < segclass.Count; i++ {
		head := lists.Head(i)
		checkCycle(nav, head, &r)
		checkAlloc(nav, head, &r)
		checkBounds(nav, head, lo, hi, &r)
		checkConsecutive(nav, head, &r)
		checkBucket(nav, head, i, &r)
	}

	return r
}

// checkPrologue verifies the permanent zero-size allocated sentinel word
// at the very start of the arena, one word before the first real block.
func checkPrologue(nav block.Navigator, lo uint32, r *Report) {
	h := nav.Header(lo)
	if h.Size() != 0 || !h.Alloc() {
		r.fail("prologue", lo, "prologue block is not marked as allocated or has non-zero size")
	}
}

// checkEpilogue walks forward from firstBlock until it finds the
// zero-size sentinel that terminates the arena, then verifies it is
// marked allocated.
func checkEpilogue(nav block.Navigator, firstBlock uint32, r *Report) {
	addr := firstBlock
	for nav.Size(addr) != 0 {
		addr = nav.Next(addr)
	}
	if !nav.Header(addr).Alloc() {
		r.fail("epilogue", addr, "epilogue block is not marked as allocated")
	}
}

func checkLieWithinHeap(nav block.Navigator, addr, lo, hi uint32, r *Report) {
	for nav.Size(addr) > 0 {
		if addr < lo || addr > hi {
			r.fail("lie_within_heap", addr, "block outside heap bounds")
			return
		}
		addr = nav.Next(addr)
	}
}

func checkBlockAlignment(nav block.Navigator, addr uint32, r *Report) {
	for nav.Size(addr) > 0 {
		if nav.Size(addr)%block.DWordSize != 0 {
			r.fail("block_alignment", addr, "block not aligned to double-word boundary")
			return
		}
		addr = nav.Next(addr)
	}
}

func checkHeaderFooterMatch(nav block.Navigator, addr uint32, r *Report) {
	for nav.Size(addr) > 0 {
		if nav.Size(addr) > block.MinSize && !nav.Header(addr).Alloc() {
			footerAddr := addr + nav.Size(addr) - block.WordSize
			footerSize := bitsSizeAt(nav, footerAddr)
			if nav.Size(addr) != footerSize {
				r.fail("header_footer_match", addr, "header and footer size do not match")
				return
			}
		}
		addr = nav.Next(addr)
	}
}

func checkMinimumBlockSize(nav block.Navigator, addr uint32, r *Report) {
	for nav.Size(addr) > 0 {
		if nav.Size(addr) < block.MinSize {
			r.fail("minimum_block_size", addr, "block does not meet minimum block size")
			return
		}
		addr = nav.Next(addr)
	}
}

func checkContiguousFreeBlocks(nav block.Navigator, firstBlock uint32, r *Report) {
	prev := firstBlock
	curr := nav.Next(prev)
	for nav.Size(curr) > 0 {
		if !nav.Header(curr).Alloc() && !nav.Header(prev).Alloc() {
			r.fail("contiguous_free_blocks", curr, "two consecutive free blocks")
			return
		}
		prev = curr
		curr = nav.Next(curr)
	}
}

func checkCycle(nav block.Navigator, head uint32, r *Report) {
	if head == none {
		return
	}
	hare, tortoise := head, head
	for {
		hareNext := nav.FreeNext(hare)
		if hareNext == none {
			return
		}
		hareNextNext := nav.FreeNext(hareNext)
		if hareNextNext == none {
			return
		}
		hare = hareNextNext
		tortoise = nav.FreeNext(tortoise)
		if hare == tortoise {
			r.fail("cycle", head, "cycle in the free list")
			return
		}
	}
}

func checkAlloc(nav block.Navigator, head uint32, r *Report) {
	for addr := head; addr != none; addr = nav.FreeNext(addr) {
		if nav.Header(addr).Alloc() {
			r.fail("alloc", addr, "allocated block in the free list")
			return
		}
	}
}

func checkBounds(nav block.Navigator, head, lo, hi uint32, r *Report) {
	for addr := head; addr != none; addr = nav.FreeNext(addr) {
		if addr < lo || addr > hi {
			r.fail("bounds", addr, "free list pointer outside heap bounds")
			return
		}
	}
}

func checkConsecutive(nav block.Navigator, head uint32, r *Report) {
	for addr := head; addr != none; {
		next := nav.FreeNext(addr)
		if next == none {
			return
		}
		if nav.FreePrev(next) != addr {
			r.fail("consecutive", addr, "inconsistent next/prev pointers")
			return
		}
		addr = next
	}
}

func checkBucket(nav block.Navigator, head uint32, wantBucket int, r *Report) {
	if head == none {
		return
	}
	for addr := head; addr != none; addr = nav.FreeNext(addr) {
		if segclass.Of(nav.Size(addr)) != wantBucket {
			r.fail("bucket", addr, "block does not fall within its bucket's size range")
			return
		}
	}
}

func bitsSizeAt(nav block.Navigator, addr uint32) uint32 {
	return nav.Header(addr).Size()
}
