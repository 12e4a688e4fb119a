package segclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfBoundaries(t *testing.T) {
	tests := []struct {
		size uint32
		want int
	}{
		{16, 0},
		{31, 0},
		{32, 1},
		{64, 1},
		{65, 2},
		{128, 2},
		{129, 3},
		{256, 3},
		{257, 4},
		{512, 4},
		{1024, 5},
		{2048, 6},
		{4096, 7},
		{8192, 8},
		{16384, 9},
		{32768, 10},
		{65536, 11},
		{131072, 12},
		{262144, 13},
		{262145, 14},
		{1 << 20, 14},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Of(tt.size), "size=%d", tt.size)
	}
}

func TestMiniIsZero(t *testing.T) {
	assert.Equal(t, 0, Mini)
}
