package placement

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

func TestFindFitMiniShortCircuitsOnHead(t *testing.T) {
	// Address 0 is reserved for the prologue in every real heap and
	// collides with the `none` list-terminator sentinel, so the sole
	// candidate block here sits at a non-zero synthetic address.
	nav, lists := setup(t, 64)
	nav.WriteBlock(8, block.MinSize, false, true, false)
	lists.Insert(8, block.MinSize)

	addr, ok := FindFit(nav, lists, block.MinSize)
	require.True(t, ok)
	assert.Equal(t, uint32(8), addr)
}

func TestFindFitNoneAvailable(t *testing.T) {
	nav, lists := setup(t, 64)
	_, ok := FindFit(nav, lists, 32)
	assert.False(t, ok)
	_ = nav
}

func TestFindFitPrefersCloserSize(t *testing.T) {
	nav, lists := setup(t, 256)
	// Two candidates in the same bucket: a loose fit and a tight one. The
	// loose fit is inserted last, so it heads the list and is seen first;
	// its surplus (48) is above closeEnough, so the search goes on.
	nav.WriteBlock(8, 80, false, true, false)
	nav.WriteBlock(88, 128, false, true, false)
	lists.Insert(8, 80)
	lists.Insert(88, 128)

	addr, ok := FindFit(nav, lists, 80)
	require.True(t, ok)
	assert.Equal(t, uint32(8), addr)
}

func TestFindFitSearchesHigherBucketsWhenRequestedBucketEmpty(t *testing.T) {
	// Same address-0/none collision as above: keep the candidate off 0.
	nav, lists := setup(t, 256)
	nav.WriteBlock(8, 1024, false, true, false)
	lists.Insert(8, 1024)

	addr, ok := FindFit(nav, lists, 200) // bucket for 200 is empty; 1024 lives higher
	require.True(t, ok)
	assert.Equal(t, uint32(8), addr)
}

func TestSplitCarvesAllocatedFrontAndReinsertsRemainder(t *testing.T) {
	nav, lists := setup(t, 136)
	nav.WriteBlock(0, 128, true, true, false)
	nav.WriteEpilogue(128, true, false)

	Split(nav, lists, 0, 32)

	assert.Equal(t, uint32(32), nav.Size(0))
	assert.True(t, nav.Header(0).Alloc())

	remainderAddr := nav.Next(0)
	assert.Equal(t, uint32(32), remainderAddr)
	assert.Equal(t, uint32(96), nav.Size(remainderAddr))
	assert.False(t, nav.Header(remainderAddr).Alloc())
	assert.Equal(t, remainderAddr, lists.Head(segclassOf(96)))
}

func TestSplitSkipsWhenRemainderTooSmall(t *testing.T) {
	nav, lists := setup(t, 48)
	nav.WriteBlock(0, 48, true, true, false)

	Split(nav, lists, 0, 40) // remainder would be 8, below MinSize

	assert.Equal(t, uint32(48), nav.Size(0))
}

func segclassOf(size uint32) int {
	// local mirror avoids importing segclass just for one assertion
	if size < 32 {
		return 0
	}
	bounds := []uint32{64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536, 131072, 262144}
	for i, b := range bounds {
		if size <= b {
			return i + 1
		}
	}
	return 14
}
