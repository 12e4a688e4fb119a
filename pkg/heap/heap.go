// Package heap is the allocator's public surface: Malloc, Free, Realloc,
// and Calloc over a growable byte arena, backed by a segregated free list
// with bounded best-fit placement and boundary-tag coalescing.
package heap

import (
	"io"
	"sync"

	"github.com/go-segheap/segheap/internal/arena"
	"github.com/go-segheap/segheap/internal/bits"
	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/coalesce"
	"github.com/go-segheap/segheap/internal/errcode"
	"github.com/go-segheap/segheap/internal/freelist"
	"github.com/go-segheap/segheap/internal/heapcheck"
	"github.com/go-segheap/segheap/internal/heaptrace"
	"github.com/go-segheap/segheap/internal/placement"
)

// chunkSize is the minimum amount the arena grows by whenever a request
// can't be satisfied from the free lists.
const chunkSize = 2048

// Config controls optional behavior of a Heap, following the teacher's
// Config/DefaultConfig convention rather than reading the environment or
// parsing flags.
type Config struct {
	// TraceLevel controls how much activity heaptrace records.
	TraceLevel heaptrace.Level
	// TraceOutput receives trace lines; ignored if TraceLevel is LevelOff.
	TraceOutput io.Writer
	// CheckOnEveryOp runs the full heap checker before and after every
	// public call, matching the reference allocator's debug-build
	// dbg_requires/dbg_ensures checks. Expensive; intended for tests and
	// diagnosis, not production use.
	CheckOnEveryOp bool
}

// DefaultConfig returns a Config with tracing off and consistency checks
// disabled, the configuration a release build would use.
func DefaultConfig() Config {
	return Config{TraceLevel: heaptrace.LevelOff}
}

// Heap is a segregated-fit allocator over an arena.Arena. The zero value
// is not usable; construct one with New.
type Heap struct {
	mu sync.Mutex

	a      arena.Arena
	nav    block.Navigator
	lists  *freelist.Lists
	tracer *heaptrace.Tracer
	cfg    Config

	firstBlock uint32
}

// New creates a Heap over the given arena. The arena must be empty (zero
// length); New lays down the prologue and grows the arena by one initial
// chunk.
func New(a arena.Arena, cfg Config) (*Heap, error) {
	h := &Heap{
		a:      a,
		nav:    block.New(a),
		tracer: heaptrace.New(cfg.TraceOutput, cfg.TraceLevel),
		cfg:    cfg,
	}
	if err := h.init(); err != nil {
		return nil, err
	}
	return h, nil
}

// init lays down the permanent prologue/epilogue pair and grows the arena
// by one initial chunk, mirroring mm_init.
func (h *Heap) init() error {
	base, err := h.a.Extend(2 * block.WordSize)
	if err != nil {
		return &errcode.AllocatorError{Type: errcode.TypeOutOfMemory, Message: "failed to reserve prologue/epilogue: " + err.Error()}
	}

	h.nav.SetHeader(base, bits.Pack(0, true, true, false)) // permanent prologue
	h.firstBlock = base + block.WordSize
	h.nav.WriteEpilogue(h.firstBlock, true, false)
	h.lists = freelist.New(h.nav)

	if _, err := h.extendHeap(chunkSize); err != nil {
		return err
	}
	return nil
}

// extendHeap grows the arena by at least size bytes (rounded up to a
// double-word multiple). The arena's old epilogue sits exactly one word
// before the newly grown region's base, so that word becomes the header
// of the new free block; a fresh epilogue is written after it, and the
// new block is coalesced with whatever free block preceded it.
func (h *Heap) extendHeap(size uint32) (uint32, error) {
	size = roundUp(size, block.DWordSize)

	base, err := h.a.Extend(size)
	if err != nil {
		return 0, &errcode.AllocatorError{Type: errcode.TypeOutOfMemory, Size: size, Message: "arena extend failed: " + err.Error()}
	}
	newBlock := base - block.WordSize

	oldEpilogue := h.nav.Header(newBlock)
	h.nav.WriteBlock(newBlock, size, false, oldEpilogue.PrevAlloc(), oldEpilogue.PrevMini())

	next := h.nav.Next(newBlock)
	h.nav.WriteEpilogue(next, false, size == block.MinSize)

	return coalesce.Merge(h.nav, h.lists, newBlock), nil
}

func roundUp(size, n uint32) uint32 { return n * ((size + n - 1) / n) }

// adjustedSize converts a requested payload size into the block size the
// allocator actually carves, matching the reference allocator's rule:
// requests of wordSize or less get the minimum block, everything else is
// padded for its header and rounded up to a double word.
func adjustedSize(size uint32) uint32 {
	if size <= block.WordSize {
		return block.MinSize
	}
	return roundUp(size+block.WordSize, block.DWordSize)
}

// Malloc allocates size bytes and returns the address of the payload. A
// size of 0 returns (0, nil): the allocator treats it as a no-op request,
// matching malloc(0)'s permitted NULL-returning behavior.
func (h *Heap) Malloc(size uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.CheckOnEveryOp {
		if err := h.checkLocked(); err != nil {
			return 0, err
		}
	}

	if size == 0 {
		h.tracer.Malloc(0, 0, nil)
		return 0, nil
	}

	asize := adjustedSize(size)

	addr, ok := placement.FindFit(h.nav, h.lists, asize)
	if !ok {
		extendSize := asize
		if extendSize < chunkSize {
			extendSize = chunkSize
		}
		merged, err := h.extendHeap(extendSize)
		if err != nil {
			h.tracer.Malloc(size, 0, err)
			return 0, err
		}
		addr = merged
	}

	h.lists.DeleteAuto(addr)

	hdr := h.nav.Header(addr)
	blockSize := hdr.Size()
	h.nav.WriteBlock(addr, blockSize, true, hdr.PrevAlloc(), hdr.PrevMini())

	next := h.nav.Next(addr)
	nextHdr := h.nav.Header(next)
	h.nav.WriteBlock(next, nextHdr.Size(), nextHdr.Alloc(), true, blockSize == block.MinSize)

	placement.Split(h.nav, h.lists, addr, asize)

	payload := h.nav.Payload(addr)
	h.tracer.Malloc(size, payload, nil)

	if h.cfg.CheckOnEveryOp {
		if err := h.checkLocked(); err != nil {
			return 0, err
		}
	}
	return payload, nil
}

// Free releases the block at payload. Passing 0 (the NULL payload
// address) is a no-op.
func (h *Heap) Free(payload uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg.CheckOnEveryOp {
		if err := h.checkLocked(); err != nil {
			return err
		}
	}

	if payload == 0 {
		h.tracer.Free(0, nil)
		return nil
	}

	addr := h.nav.PayloadToBlock(payload)
	if err := h.validateOwnedBlock(addr); err != nil {
		h.tracer.Free(payload, err)
		return err
	}

	hdr := h.nav.Header(addr)
	size := hdr.Size()
	h.nav.WriteBlock(addr, size, false, hdr.PrevAlloc(), hdr.PrevMini())

	next := h.nav.Next(addr)
	nextHdr := h.nav.Header(next)
	h.nav.WriteBlock(next, nextHdr.Size(), nextHdr.Alloc(), false, size == block.MinSize)

	coalesce.Merge(h.nav, h.lists, addr)

	h.tracer.Free(payload, nil)

	if h.cfg.CheckOnEveryOp {
		if err := h.checkLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Realloc resizes the block at payload to size bytes, preserving its
// contents up to the smaller of the old and new sizes. A size of 0 frees
// the block and returns (0, nil); a payload of 0 behaves like Malloc.
func (h *Heap) Realloc(payload, size uint32) (uint32, error) {
	if size == 0 {
		err := h.Free(payload)
		h.tracer.Realloc(payload, 0, 0, err)
		return 0, err
	}
	if payload == 0 {
		p, err := h.Malloc(size)
		h.tracer.Realloc(0, size, p, err)
		return p, err
	}

	h.mu.Lock()
	addr := h.nav.PayloadToBlock(payload)
	if err := h.validateOwnedBlock(addr); err != nil {
		h.mu.Unlock()
		h.tracer.Realloc(payload, size, 0, err)
		return 0, err
	}
	oldPayloadSize := h.nav.PayloadSize(addr)
	h.mu.Unlock()

	newPayload, err := h.Malloc(size)
	if err != nil {
		h.tracer.Realloc(payload, size, 0, err)
		return 0, err
	}

	copySize := oldPayloadSize
	if size < copySize {
		copySize = size
	}
	h.a.Memcpy(newPayload, payload, copySize)

	if err := h.Free(payload); err != nil {
		h.tracer.Realloc(payload, size, newPayload, err)
		return 0, err
	}

	h.tracer.Realloc(payload, size, newPayload, nil)
	return newPayload, nil
}

// Calloc allocates space for n elements of size bytes each, zeroed. It
// fails with an AllocatorError rather than wrapping if n*size overflows
// uint32.
func (h *Heap) Calloc(n, size uint32) (uint32, error) {
	if n == 0 || size == 0 {
		h.tracer.Calloc(n, size, 0, nil)
		return 0, nil
	}

	total := uint64(n) * uint64(size)
	if total > 0xFFFFFFFF {
		err := &errcode.AllocatorError{Type: errcode.TypeInvalidSize, Size: size, Message: "element count * size overflows a 32-bit arena"}
		h.tracer.Calloc(n, size, 0, err)
		return 0, err
	}

	payload, err := h.Malloc(uint32(total))
	if err != nil {
		h.tracer.Calloc(n, size, 0, err)
		return 0, err
	}

	h.a.Memset(payload, uint32(total), 0)
	h.tracer.Calloc(n, size, payload, nil)
	return payload, nil
}

// validateOwnedBlock reports an error if addr does not look like a block
// this heap actually handed out: misaligned, out of the arena's bounds, or
// already marked free (a double free).
func (h *Heap) validateOwnedBlock(addr uint32) error {
	if addr%block.WordSize != 0 {
		return &errcode.PointerError{Type: errcode.TypeNotAligned, Pointer: addr, Message: "address is not word-aligned"}
	}
	if addr < h.firstBlock || addr > h.a.Hi() {
		return &errcode.BoundsError{Address: addr, Lo: h.firstBlock, Hi: h.a.Hi(), Message: "address outside heap bounds"}
	}
	if !h.nav.Header(addr).Alloc() {
		return &errcode.PointerError{Type: errcode.TypeDoubleFree, Pointer: addr, Message: "block is already free"}
	}
	return nil
}

// Check runs the full consistency checker against the current heap state.
func (h *Heap) Check() heapcheck.Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	return heapcheck.Check(h.nav, h.lists, h.firstBlock, h.a.Lo(), h.a.Hi())
}

func (h *Heap) checkLocked() error {
	r := heapcheck.Check(h.nav, h.lists, h.firstBlock, h.a.Lo(), h.a.Hi())
	if !r.OK() {
		return &errcode.AllocatorError{Type: errcode.TypeCorruptedHeap, Message: r.Violations[0].String()}
	}
	return nil
}

// Stats reports cumulative call counts across all public operations.
func (h *Heap) Stats() heaptrace.Stats {
	return h.tracer.Stats()
}

// DumpHeap writes a human-readable block-by-block listing to out.
func (h *Heap) DumpHeap(out io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	heaptrace.DumpHeap(out, h.nav, h.firstBlock)
}
