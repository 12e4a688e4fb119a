// Package arena supplies the byte-arena capability the allocator core
// consumes: a contiguous, monotonically-growable region with word-level
// header access and byte-level copy/fill primitives. The core never grows
// or owns memory itself; it only calls through this interface.
package arena

import "fmt"

// Arena is the host capability the allocator core is built against. All
// addresses are offsets into the arena's own byte space, starting at 0.
type Arena interface {
	// Extend grows the arena by n bytes and returns the address at which
	// the new region begins (the arena's length before growth).
	Extend(n uint32) (base uint32, err error)

	// Lo returns the lowest valid address in the arena.
	Lo() uint32

	// Hi returns the highest valid address in the arena (inclusive).
	Hi() uint32

	// ReadUint64 reads the 8-byte little-endian word at addr.
	ReadUint64(addr uint32) uint64

	// WriteUint64 writes the 8-byte little-endian word at addr.
	WriteUint64(addr uint32, v uint64)

	// Read returns a copy of n bytes starting at addr.
	Read(addr, n uint32) []byte

	// Write copies data into the arena starting at addr.
	Write(addr uint32, data []byte)

	// Memset fills n bytes starting at addr with b.
	Memset(addr, n uint32, b byte)

	// Memcpy copies n bytes from src to dst, correctly handling overlap.
	Memcpy(dst, src, n uint32)
}

// ExtendError reports a failed arena growth request.
type ExtendError struct {
	Requested uint32
	Message   string
}

func (e *ExtendError) Error() string {
	return fmt.Sprintf("arena: extend(%d) failed: %s", e.Requested, e.Message)
}
