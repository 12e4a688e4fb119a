// Package block turns arena addresses into block structure: header/footer
// placement, the physical next/prev walk, and the free-list pointer slots
// that overlay a free block's payload. It is the only package that computes
// offsets into a block; everything above it deals in addresses and sizes.
package block

import (
	"github.com/go-segheap/segheap/internal/arena"
	"github.com/go-segheap/segheap/internal/bits"
)

const (
	// WordSize is the size of a header/footer/pointer slot.
	WordSize = 8
	// DWordSize is the size of a header+footer pair, and the unit blocks
	// are padded to.
	DWordSize = 2 * WordSize
	// MinSize is the smallest possible block: an 8-byte header plus an
	// 8-byte payload/next-pointer slot. Blocks of exactly this size are
	// "mini" blocks and never carry a footer or a prev pointer.
	MinSize = DWordSize
)

// Navigator reads and writes block structure directly against an arena.
// It holds no block-level state itself; every method takes the address of
// the block it concerns.
type Navigator struct {
	A arena.Arena
}

// New builds a Navigator over the given arena.
func New(a arena.Arena) Navigator {
	return Navigator{A: a}
}

// Header reads the header word at addr.
func (n Navigator) Header(addr uint32) bits.Header {
	return bits.Header(n.A.ReadUint64(addr))
}

// SetHeader writes a header word at addr.
func (n Navigator) SetHeader(addr uint32, h bits.Header) {
	n.A.WriteUint64(addr, uint64(h))
}

// Size returns the block's size as encoded in its header.
func (n Navigator) Size(addr uint32) uint32 {
	return n.Header(addr).Size()
}

// footerAddr returns the address of addr's footer. Only valid for a free,
// non-mini block (mini blocks and allocated blocks carry no footer).
func (n Navigator) footerAddr(addr, size uint32) uint32 {
	return addr + size - WordSize
}

// WriteBlock packs and writes a block's header, and its footer too when the
// block is free and larger than the minimum size. Allocated blocks and mini
// free blocks never get a footer written.
func (n Navigator) WriteBlock(addr, size uint32, alloc, prevAlloc, prevMini bool) {
	h := bits.Pack(size, alloc, prevAlloc, prevMini)
	n.SetHeader(addr, h)
	if !alloc && size > MinSize {
		n.A.WriteUint64(n.footerAddr(addr, size), uint64(h))
	}
}

// WriteEpilogue writes the zero-size allocated sentinel block that always
// terminates the arena.
func (n Navigator) WriteEpilogue(addr uint32, prevAlloc, prevMini bool) {
	n.SetHeader(addr, bits.Pack(0, true, prevAlloc, prevMini))
}

// Next returns the address of the block physically following addr, found
// by walking forward by addr's own size.
func (n Navigator) Next(addr uint32) uint32 {
	return addr + n.Size(addr)
}

// Prev returns the address of the block physically preceding addr, and
// false if addr is the first real block in the arena (no predecessor).
//
// When the preceding block is mini-sized, its size is known a priori (the
// mini blocks carry no footer to read), so the walk is a fixed 16-byte
// step back from addr's header. Otherwise the preceding block's footer,
// one word before addr's header, holds its size.
func (n Navigator) Prev(addr uint32) (uint32, bool) {
	h := n.Header(addr)
	if h.PrevMini() {
		return addr - MinSize, true
	}
	footer := addr - WordSize
	size := bits.Header(n.A.ReadUint64(footer)).Size()
	if size == 0 {
		return 0, false
	}
	return footer + WordSize - size, true
}

// Payload returns the address of addr's payload (just past its header).
func (n Navigator) Payload(addr uint32) uint32 { return addr + WordSize }

// PayloadToBlock recovers a block address from one of its payload addresses.
func (n Navigator) PayloadToBlock(payload uint32) uint32 { return payload - WordSize }

// PayloadSize returns the number of usable payload bytes in the block.
func (n Navigator) PayloadSize(addr uint32) uint32 { return n.Size(addr) - WordSize }

// Free-list pointer slots. A non-mini free block stores prev at payload+0
// and next at payload+8 (word size); a mini free block stores only next,
// at payload+0, since it never sits on a doubly-linked list.

// FreeNext returns the forward free-list pointer of a non-mini free block.
func (n Navigator) FreeNext(addr uint32) uint32 {
	return uint32(n.A.ReadUint64(n.Payload(addr) + WordSize))
}

// SetFreeNext sets the forward free-list pointer of a non-mini free block.
func (n Navigator) SetFreeNext(addr, next uint32) {
	n.A.WriteUint64(n.Payload(addr)+WordSize, uint64(next))
}

// FreePrev returns the backward free-list pointer of a non-mini free block.
func (n Navigator) FreePrev(addr uint32) uint32 {
	return uint32(n.A.ReadUint64(n.Payload(addr)))
}

// SetFreePrev sets the backward free-list pointer of a non-mini free block.
func (n Navigator) SetFreePrev(addr, prev uint32) {
	n.A.WriteUint64(n.Payload(addr), uint64(prev))
}

// MiniNext returns the singly-linked forward pointer of a mini free block.
func (n Navigator) MiniNext(addr uint32) uint32 {
	return uint32(n.A.ReadUint64(n.Payload(addr)))
}

// SetMiniNext sets the singly-linked forward pointer of a mini free block.
func (n Navigator) SetMiniNext(addr, next uint32) {
	n.A.WriteUint64(n.Payload(addr), uint64(next))
}
