// Package freelist maintains the 15 segregated free lists: a doubly-linked
// list per non-mini bucket for O(1) removal from anywhere in the list, and
// a singly-linked list for the mini bucket, where blocks are too small to
// spare a word for a prev pointer.
package freelist

import (
	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/segclass"
)

// none is the sentinel "no block" address. Address 0 can never be a real
// free block: the arena's permanent prologue header occupies it.
const none = 0

// Lists owns the 15 bucket heads and performs insert/delete against the
// block navigator that actually stores the per-block pointers.
type Lists struct {
	nav   block.Navigator
	heads [segclass.Count]uint32
}

// New builds an empty set of segregated free lists over the given navigator.
func New(nav block.Navigator) *Lists {
	return &Lists{nav: nav}
}

// Head returns the head address of the given bucket, or 0 if empty.
func (l *Lists) Head(bucket int) uint32 { return l.heads[bucket] }

// Insert adds the free block at addr (of the given size) to its bucket.
func (l *Lists) Insert(addr, size uint32) {
	if size == block.MinSize {
		l.insertMini(addr)
		return
	}
	l.insertNormal(addr, size)
}

// Delete removes the free block at addr (of the given size) from its bucket.
func (l *Lists) Delete(addr, size uint32) {
	if size == block.MinSize {
		l.deleteMini(addr)
		return
	}
	l.deleteNormal(addr, size)
}

func (l *Lists) insertNormal(addr, size uint32) {
	bucket := segclass.Of(size)
	head := l.heads[bucket]

	l.nav.SetFreePrev(addr, none)
	l.nav.SetFreeNext(addr, head)
	if head != none {
		l.nav.SetFreePrev(head, addr)
	}
	l.heads[bucket] = addr
}

func (l *Lists) deleteNormal(addr, size uint32) {
	bucket := segclass.Of(size)
	head := l.heads[bucket]

	if head == addr {
		next := l.nav.FreeNext(addr)
		l.heads[bucket] = next
		if next != none {
			l.nav.SetFreePrev(next, none)
		}
		return
	}

	prev := l.nav.FreePrev(addr)
	next := l.nav.FreeNext(addr)
	l.nav.SetFreeNext(prev, next)
	if next != none {
		l.nav.SetFreePrev(next, prev)
	}
}

func (l *Lists) insertMini(addr uint32) {
	head := l.heads[segclass.Mini]
	l.nav.SetMiniNext(addr, head)
	l.heads[segclass.Mini] = addr
}

func (l *Lists) deleteMini(addr uint32) {
	head := l.heads[segclass.Mini]
	if head == none {
		return
	}

	if head == addr {
		l.heads[segclass.Mini] = l.nav.MiniNext(addr)
		return
	}

	prev := head
	next := l.nav.MiniNext(head)
	for next != addr {
		prev = next
		next = l.nav.MiniNext(next)
	}
	l.nav.SetMiniNext(prev, l.nav.MiniNext(next))
}

// InsertAuto inserts a free block, choosing the mini or normal list by its
// own size, mirroring insert_normal_or_mini.
func (l *Lists) InsertAuto(addr uint32) {
	l.Insert(addr, l.nav.Size(addr))
}

// DeleteAuto removes a free block, choosing the mini or normal list by its
// own size, mirroring delete_normal_or_mini.
func (l *Lists) DeleteAuto(addr uint32) {
	l.Delete(addr, l.nav.Size(addr))
}
