// Package placement chooses where a new allocation lands: a bounded
// best-fit search across the segregated free lists, and the block split
// that follows once a fit larger than the request is found.
package placement

import (
	"math"

	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/freelist"
	"github.com/go-segheap/segheap/internal/segclass"
)

const (
	// searchLimit bounds how many blocks are visited within a single
	// bucket before moving to the next, trading placement quality for
	// a hard cap on search time.
	searchLimit = 10
	// closeEnough ends the search early once a fit within this many bytes
	// of the request has been seen, since better fits become increasingly
	// unlikely to matter.
	closeEnough = 46
)

const none = 0

// FindFit returns the address of a free block at least asize bytes large,
// chosen by bounded best-fit search, or (0, false) if no list holds one.
//
// Bucket 0 (mini blocks, all exactly block.MinSize) is special-cased: any
// mini request is satisfied by the bucket's head with no search, since
// every block in it is the same size.
func FindFit(nav block.Navigator, lists *freelist.Lists, asize uint32) (uint32, bool) {
	seg := segclass.Of(asize)

	if seg == segclass.Mini {
		if head := lists.Head(segclass.Mini); head != none {
			return head, true
		}
	}

	var best uint32
	minDiff := uint32(math.MaxUint32)
	found := false

	for i := seg; i < segclass.Count; i++ {
		addr := lists.Head(i)
		visited := 0
		for addr != none && visited < searchLimit {
			size := nav.Size(addr)
			if size >= asize {
				diff := size - asize
				if diff < minDiff {
					minDiff = diff
					best = addr
					found = true
				}
				if minDiff <= closeEnough {
					return best, true
				}
			}

			addr = nextInBucket(nav, i, addr)
			visited++
		}
	}

	return best, found
}

// nextInBucket walks the forward pointer appropriate to the bucket: the
// singly-linked mini pointer for bucket 0, the doubly-linked free-list
// pointer otherwise.
func nextInBucket(nav block.Navigator, bucket int, addr uint32) uint32 {
	if bucket == segclass.Mini {
		return nav.MiniNext(addr)
	}
	return nav.FreeNext(addr)
}

// Split carves an asize-byte allocated block off the front of the free
// block at addr, reinserting the remainder as a new free block when it is
// large enough to stand on its own. addr must already be marked allocated
// before Split is called, still carrying the full size of the free block it
// was found as; Split reads that size from the header to compute the
// remainder and rewrites the header with asize.
func Split(nav block.Navigator, lists *freelist.Lists, addr, asize uint32) {
	blockSize := nav.Size(addr)
	remainder := blockSize - asize
	if remainder < block.MinSize {
		return
	}

	header := nav.Header(addr)
	nav.WriteBlock(addr, asize, true, header.PrevAlloc(), header.PrevMini())

	next := nav.Next(addr)
	nav.WriteBlock(next, remainder, false, true, asize == block.MinSize)

	after := nav.Next(next)
	afterHeader := nav.Header(after)
	nav.WriteBlock(after, afterHeader.Size(), afterHeader.Alloc(), false, remainder == block.MinSize)

	lists.InsertAuto(next)
}
