// Package errcode defines the allocator's public error types, following
// the host bindings' convention of a typed struct per failure domain with
// a Type tag, the offending address/size, and a human Message.
package errcode

import "fmt"

// AllocatorError reports a failure in malloc/free/realloc/calloc itself:
// out-of-memory, a corrupted heap detected mid-operation, or a request
// the allocator cannot satisfy.
type AllocatorError struct {
	Type    string
	Size    uint32
	Message string
}

func (e *AllocatorError) Error() string {
	return fmt.Sprintf("allocator error [%s]: %s (size=%d)", e.Type, e.Message, e.Size)
}

// PointerError reports a bad pointer passed to free or realloc: a
// misaligned address or a double free. An address outside the arena is
// reported as a BoundsError instead.
type PointerError struct {
	Type    string
	Pointer uint32
	Message string
}

func (e *PointerError) Error() string {
	return fmt.Sprintf("pointer error [%s]: %s (ptr=0x%x)", e.Type, e.Message, e.Pointer)
}

// BoundsError reports an address or address+size pair that falls outside
// the arena's valid range.
type BoundsError struct {
	Address uint32
	Size    uint32
	Lo, Hi  uint32
	Message string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bounds error: %s (addr=0x%x, size=%d, valid=[0x%x,0x%x])",
		e.Message, e.Address, e.Size, e.Lo, e.Hi)
}

// Error type tags used across AllocatorError and PointerError.
const (
	TypeOutOfMemory   = "out_of_memory"
	TypeInvalidSize   = "invalid_size"
	TypeDoubleFree    = "double_free"
	TypeCorruptedHeap = "corrupted_heap"
	TypeNotAligned    = "not_aligned"
)
