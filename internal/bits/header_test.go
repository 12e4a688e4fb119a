package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackRoundTrip(t *testing.T) {
	tests := []struct {
		name                          string
		size                          uint32
		alloc, prevAlloc, prevMini bool
	}{
		{"alloc only", 32, true, false, false},
		{"free with prev alloc", 48, false, true, false},
		{"prev mini", 16, true, false, true},
		{"all set", 64, true, true, true},
		{"all clear", 16, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Pack(tt.size, tt.alloc, tt.prevAlloc, tt.prevMini)
			assert.Equal(t, tt.size, h.Size())
			assert.Equal(t, tt.alloc, h.Alloc())
			assert.Equal(t, tt.prevAlloc, h.PrevAlloc())
			assert.Equal(t, tt.prevMini, h.PrevMini())
		})
	}
}

func TestPackMasksStrayLowBits(t *testing.T) {
	h := Pack(0x21, true, false, false) // 0x21 has stray low bits set
	assert.Equal(t, uint32(0x20), h.Size())
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, uint32(16), RoundUp(1, 16))
	assert.Equal(t, uint32(16), RoundUp(16, 16))
	assert.Equal(t, uint32(32), RoundUp(17, 16))
	assert.Equal(t, uint32(48), RoundUp(33, 16))
}
