package arena

import (
	"encoding/binary"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

const wasmPageSize = uint32(65536)

// Wazero is an Arena backed by a live wazero api.Memory, grown in whole
// 64KiB pages the way Runtime.WriteToMemory grows a guest module's linear
// memory. It only ever calls Size, Grow, Read and Write on the underlying
// api.Memory, the same method set the host-call layer uses.
type Wazero struct {
	mem api.Memory
}

// NewWazero wraps an already-instantiated module's memory. The caller is
// responsible for instantiating the module and exporting "memory" first.
func NewWazero(mem api.Memory) *Wazero {
	return &Wazero{mem: mem}
}

func (w *Wazero) Extend(size uint32) (uint32, error) {
	base := w.mem.Size()
	if size == 0 {
		return 0, &ExtendError{Requested: size, Message: "zero-size extend"}
	}

	needed := base + size
	if needed > w.mem.Size() {
		deltaBytes := needed - w.mem.Size()
		deltaPages := (deltaBytes + wasmPageSize - 1) / wasmPageSize
		if _, ok := w.mem.Grow(deltaPages); !ok {
			return 0, &ExtendError{Requested: size, Message: fmt.Sprintf("failed to grow memory by %d pages", deltaPages)}
		}
	}

	// Zero the newly carved region; wazero zero-fills grown pages, but the
	// tail of a partially-used final page is not guaranteed clean.
	zero := make([]byte, size)
	if !w.mem.Write(base, zero) {
		return 0, &ExtendError{Requested: size, Message: "failed to zero newly grown region"}
	}
	return base, nil
}

func (w *Wazero) Lo() uint32 { return 0 }

func (w *Wazero) Hi() uint32 {
	if w.mem.Size() == 0 {
		return 0
	}
	return w.mem.Size() - 1
}

// ReadUint64 and WriteUint64 are built on Read/Write rather than any
// wazero word-access helper, so this arena only ever touches the four
// api.Memory methods the host-call layer already relies on.
func (w *Wazero) ReadUint64(addr uint32) uint64 {
	return binary.LittleEndian.Uint64(w.Read(addr, 8))
}

func (w *Wazero) WriteUint64(addr uint32, v uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	w.Write(addr, buf)
}

func (w *Wazero) Read(addr, size uint32) []byte {
	data, ok := w.mem.Read(addr, size)
	if !ok {
		panic(fmt.Sprintf("arena: out-of-bounds Read(%d, %d) (memory size %d)", addr, size, w.mem.Size()))
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}

func (w *Wazero) Write(addr uint32, data []byte) {
	if !w.mem.Write(addr, data) {
		panic(fmt.Sprintf("arena: out-of-bounds Write(%d, %d bytes) (memory size %d)", addr, len(data), w.mem.Size()))
	}
}

func (w *Wazero) Memset(addr, size uint32, b byte) {
	fill := make([]byte, size)
	if b != 0 {
		for i := range fill {
			fill[i] = b
		}
	}
	w.Write(addr, fill)
}

func (w *Wazero) Memcpy(dst, src, size uint32) {
	w.Write(dst, w.Read(src, size))
}
