package coalesce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-segheap/segheap/internal/arena"
	"github.com/go-segheap/segheap/internal/block"
	"github.com/go-segheap/segheap/internal/freelist"
)

func setup(t *testing.T, size uint32) (block.Navigator, *freelist.Lists) {
	t.Helper()
	a := arena.NewNative()
	_, err := a.Extend(size)
	require.NoError(t, err)
	nav := block.New(a)
	return nav, freelist.New(nav)
}

func TestMergeCase1NoNeighborsFree(t *testing.T) {
	nav, lists := setup(t, 96)

	nav.WriteBlock(0, 32, true, true, false)   // prev: allocated
	nav.WriteBlock(32, 32, false, true, false) // the freed block
	nav.WriteBlock(64, 32, true, false, false) // next: allocated

	merged := Merge(nav, lists, 32)

	assert.Equal(t, uint32(32), merged)
	assert.Equal(t, uint32(32), nav.Size(32))
	assert.False(t, nav.Header(32).Alloc())
	assert.Equal(t, uint32(32), lists.Head(1))
}

func TestMergeCase2PrevFree(t *testing.T) {
	nav, lists := setup(t, 96)

	nav.WriteBlock(0, 32, false, true, false) // prev: free
	lists.Insert(0, 32)
	nav.WriteBlock(32, 32, false, false, false) // the freed block, prev_alloc=false
	nav.WriteBlock(64, 32, true, false, false)  // next: allocated

	merged := Merge(nav, lists, 32)

	assert.Equal(t, uint32(0), merged)
	assert.Equal(t, uint32(64), nav.Size(0))
	assert.Equal(t, uint32(0), lists.Head(1)) // merged size 64 -> bucket 1
}

func TestMergeCase3NextFree(t *testing.T) {
	nav, lists := setup(t, 96)

	nav.WriteBlock(0, 32, true, true, false)
	nav.WriteBlock(32, 32, false, true, false) // the freed block
	nav.WriteBlock(64, 32, false, false, false)
	lists.Insert(64, 32)

	merged := Merge(nav, lists, 32)

	assert.Equal(t, uint32(32), merged)
	assert.Equal(t, uint32(64), nav.Size(32))
}

func TestMergeCase4BothFree(t *testing.T) {
	nav, lists := setup(t, 128)

	nav.WriteBlock(0, 32, false, true, false)
	lists.Insert(0, 32)
	nav.WriteBlock(32, 32, false, false, false)
	nav.WriteBlock(64, 32, false, false, false)
	lists.Insert(64, 32)
	nav.WriteBlock(96, 32, true, false, false)

	merged := Merge(nav, lists, 32)

	assert.Equal(t, uint32(0), merged)
	assert.Equal(t, uint32(96), nav.Size(0))

	after := nav.Next(merged)
	assert.Equal(t, uint32(96), after)
	assert.True(t, nav.Header(after).Alloc())
	assert.False(t, nav.Header(after).PrevAlloc())
}
